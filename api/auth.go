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
	"github.com/usagegate/usagegate/internal/notification"
)

// CreateOTP issues a one-time login code for an email address and hands it
// to the delivery webhook. The code itself never appears in the response.
func (a Api) CreateOTP(c *gin.Context) {
	var req model2.CreateOTP
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := req.ValidateCreateOTP(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	code, err := a.sessions.IssueOTP(req.Email)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	if err := notification.NotifyOTP(req.Email, code); err != nil {
		logrus.Errorf("delivering login code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deliver the login code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "login code sent"})
}

// Login exchanges a valid one-time code for a session token. The code is
// consumed whether or not the caller keeps the token.
func (a Api) Login(c *gin.Context) {
	var req model2.Login
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := req.ValidateLogin(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := a.sessions.VerifyOTP(req.Email, req.OTP); err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	token, err := a.sessions.Create(req.Email)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout destroys a session token. Unknown tokens log out successfully.
func (a Api) Logout(c *gin.Context) {
	var req model2.Logout
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := req.ValidateLogout(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := a.sessions.Destroy(req.Token); err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// VerifySession resolves the session token in the X-Session-Token header.
func (a Api) VerifySession(c *gin.Context) {
	token := c.GetHeader("X-Session-Token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Session-Token header is required"})
		return
	}

	sess, err := a.sessions.Verify(token)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": sess.Email, "expires_at": sess.ExpiresAt})
}
