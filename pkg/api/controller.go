package api

import (
	"github.com/pydist/pydist/pkg/auth"
	"github.com/pydist/pydist/pkg/block"
	"github.com/pydist/pydist/pkg/db"
	"github.com/pydist/pydist/pkg/logging"
)

type Controller struct {
	DB             db.Database
	Adapter        block.Adapter
	Auth           auth.Service
	AllowOverwrite bool

	log logging.Logger
}

func NewController(database db.Database, adapter block.Adapter, authService auth.Service, allowOverwrite bool) *Controller {
	return &Controller{
		DB:             database,
		Adapter:        adapter,
		Auth:           authService,
		AllowOverwrite: allowOverwrite,
		log:            logging.Default().WithField("service", "api"),
	}
}
