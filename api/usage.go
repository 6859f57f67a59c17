/*
Copyright 2025 Usagegate Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	model2 "github.com/usagegate/usagegate/api/model"
	"github.com/usagegate/usagegate/internal/apierror"
)

// ConsumeUse performs the hard increment for the identifier in the request
// body.
//
// Responses:
// - 400 Bad Request: malformed body.
// - 404 Not Found: unknown identifier.
// - 403 Forbidden: locked account.
// - 409 Conflict: quota exhausted (the record is deleted as a side effect).
// - 200 OK: one unit consumed.
func (a Api) ConsumeUse(c *gin.Context) {
	var req model2.UsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := req.ValidateUsageRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	result, err := a.gate.ConsumeUse(c.Request.Context(), req.ID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CheckStatus reports the record's count, limit and active flag without
// consuming anything.
func (a Api) CheckStatus(c *gin.Context) {
	var req model2.UsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := req.ValidateUsageRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	result, err := a.gate.CheckStatus(c.Request.Context(), req.ID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PreviewUse runs the configured preview policy for the identifier. The
// response is advisory and never gates real consumption.
func (a Api) PreviewUse(c *gin.Context) {
	var req model2.UsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := req.ValidateUsageRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	result, err := a.gate.PreviewUse(c.Request.Context(), req.ID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), result)
		return
	}

	c.JSON(http.StatusOK, result)
}
