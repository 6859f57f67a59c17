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

// ReserveUse opens a pending reservation for the identifier in the body.
//
// Responses:
// - 404/403/409: the usual not-found / locked / no-slots-left failures.
// - 201 Created: reservation created, request_id in the payload.
func (a Api) ReserveUse(c *gin.Context) {
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

	result, err := a.gate.ReserveUse(c.Request.Context(), req.ID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), result)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// CommitReservation turns a pending reservation into a consumed unit.
// Committing a request that already left pending is a 409 with the terminal
// status in the message.
func (a Api) CommitReservation(c *gin.Context) {
	requestID, passed := c.Params.Get("request_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_id is required. pass id in the route /reservations/:request_id/commit"})
		return
	}

	result, err := a.gate.CommitReservation(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CancelReservation releases a pending reservation without touching the
// account record.
func (a Api) CancelReservation(c *gin.Context) {
	requestID, passed := c.Params.Get("request_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_id is required. pass id in the route /reservations/:request_id/cancel"})
		return
	}

	result, err := a.gate.CancelReservation(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetReservation returns the stored reservation for a request id.
func (a Api) GetReservation(c *gin.Context) {
	requestID, passed := c.Params.Get("request_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_id is required. pass id in the route /reservations/:request_id"})
		return
	}

	request, err := a.gate.GetReservation(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, request)
}
