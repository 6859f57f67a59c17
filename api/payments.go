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

// PaymentWebhook ingests a payment notification, reconciles it against the
// priced-unit configuration and provisions the ledger record named in the
// payment reference.
//
// Responses:
// - 400 Bad Request: malformed body or unusable payment reference.
// - 201 Created: record provisioned (matched or sized to the paid amount).
func (a Api) PaymentWebhook(c *gin.Context) {
	var notice model2.PaymentNotice
	if err := c.ShouldBindJSON(&notice); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := notice.ValidatePaymentNotice(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	result, err := a.gate.ReconcilePayment(c.Request.Context(), notice.Content, notice.TransferAmount)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), result)
		return
	}

	c.JSON(http.StatusCreated, result)
}
