// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arindamdawn/nextgen-cto/services/waitlist/sheets"
)

// SheetsTest handles GET /api/sheets/test: a read-only probe of the
// credential, signing, and token-exchange stages.
func SheetsTest(diag *sheets.Diagnostics) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := diag.TestConnection(c.Request.Context())
		c.JSON(statusFor(report.Success), report)
	}
}

// SheetsDebug handles GET /api/sheets/debug: the full pipeline probe
// including a real test row written to the sheet.
func SheetsDebug(diag *sheets.Diagnostics) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := diag.DebugAppend(c.Request.Context())
		c.JSON(statusFor(report.Success), report)
	}
}

func statusFor(ok bool) int {
	if ok {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}
