package app

import (
	"github.com/go-chi/oauth"
	"github.com/mbolis/survey-forms/config"
	"github.com/mbolis/survey-forms/store"
)

// App bundles what request handlers depend on.
type App struct {
	*store.Store
	*oauth.BearerServer
	config.Config
}
