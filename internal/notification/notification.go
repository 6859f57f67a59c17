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

package notification

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/usagegate/usagegate/config"
	"github.com/usagegate/usagegate/internal/request"
)

// webhookEvent is the envelope posted to the configured notification
// webhook. OTP delivery and error reporting share it.
type webhookEvent struct {
	Event   string      `json:"event"`
	Time    string      `json:"time"`
	Payload interface{} `json:"payload"`
}

func postEvent(event webhookEvent) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.Webhook.Url == "" {
		return nil
	}

	payload, err := request.ToJsonReq(&event)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, conf.Notification.Webhook.Url, payload)
	if err != nil {
		return err
	}
	for k, v := range conf.Notification.Webhook.Headers {
		req.Header.Set(k, v)
	}

	resp, err := request.Call(req, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// deliver posts the event with exponential backoff. Delivery is best effort;
// the last error is returned after retries are exhausted.
func deliver(event webhookEvent) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	return backoff.Retry(func() error {
		return postEvent(event)
	}, policy)
}

// NotifyError logs the system error and forwards it to the notification
// webhook when one is configured. It never blocks the caller.
func NotifyError(systemError error) {
	go func(systemError error) {
		logrus.Error(systemError)
		if err := deliver(webhookEvent{
			Event:   "system.error",
			Time:    time.Now().Format(time.RFC822),
			Payload: map[string]string{"error": systemError.Error()},
		}); err != nil {
			log.Println(err)
		}
	}(systemError)
}

// NotifyOTP hands a one-time login code to the delivery webhook. The mail
// relay behind the webhook owns formatting and transport.
func NotifyOTP(email, code string) error {
	return deliver(webhookEvent{
		Event: "otp.created",
		Time:  time.Now().Format(time.RFC822),
		Payload: map[string]string{
			"email": email,
			"otp":   code,
		},
	})
}
