// Package di contains dependency injection tokens for the pools context.
package di

import (
	"github.com/fd1az/perpetual-pools/business/pools/app"
	"github.com/fd1az/perpetual-pools/business/pools/infra"
	"github.com/fd1az/perpetual-pools/internal/di"
)

// Public service tokens - exposed to the command layer
var (
	BrowseService = di.NewToken[*app.BrowseService]("pools.BrowseService")
	Denoter       = di.NewToken[*app.Denoter]("pools.Denoter")
	RowSource     = di.NewToken[app.RowSource]("pools.RowSource")
)

// Private dependency tokens - internal to pools module
var (
	APIHandler = di.NewToken[*infra.APIHandler]("pools:apiHandler")
)

// GetBrowseService returns the browse service.
func GetBrowseService(c di.ServiceRegistry) *app.BrowseService {
	return di.GetToken(c, BrowseService)
}

// GetDenoter returns the value denoter.
func GetDenoter(c di.ServiceRegistry) *app.Denoter {
	return di.GetToken(c, Denoter)
}

// GetRowSource returns the configured row source.
func GetRowSource(c di.ServiceRegistry) app.RowSource {
	return di.GetToken(c, RowSource)
}

// GetAPIHandler returns the JSON browse handler.
func GetAPIHandler(c di.ServiceRegistry) *infra.APIHandler {
	return di.GetToken(c, APIHandler)
}
