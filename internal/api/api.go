// Package api provides HTTP handlers for the fixtureline prediction API.
//
// @title fixtureline API
// @description.markdown
// @version 1.0
// @BasePath /v1
//
// @contact.name API Support
// @contact.url https://github.com/stormlightlabs/fixtureline
// @contact.email info@stormlightlabs.org
//
// @license.name MPL-2.0
// @license.url https://opensource.org/license/mpl-2-0
//
// @tag.name jackpots
// @tag.description Jackpot ticket creation and prediction
//
// @tag.name models
// @tag.description Model training, activation, and versioning
//
// @tag.name calibration
// @tag.description Calibration curves and reliability reports
//
// @tag.name teams
// @tag.description Team name resolution
//
// @tag.name health
// @tag.description Service health
package api

import "net/http"

// Registrar is anything that can add its endpoints to a mux.
type Registrar interface {
	RegisterRoutes(mux *http.ServeMux)
}
