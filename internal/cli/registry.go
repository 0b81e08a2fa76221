package cli

import (
	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/adapter/copystore"
	"github.com/pholbrook/statebench/internal/adapter/mapstore"
	"github.com/pholbrook/statebench/internal/adapter/signalstore"
	"github.com/pholbrook/statebench/internal/adapter/sqlstore"
)

// BuiltinRegistry returns the fixed registry of reference adapters, in
// presentation order.
func BuiltinRegistry() *adapter.Registry {
	reg := adapter.NewRegistry()

	// Registration of the built-ins cannot fail: names are unique
	// constants. A failure here is a programming error.
	must(reg.Register(mapstore.New()))
	must(reg.Register(copystore.New()))
	must(reg.Register(signalstore.New(), adapter.WithPerKeySubscriptions()))
	must(reg.Register(sqlstore.New()))

	return reg
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
