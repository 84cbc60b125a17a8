/*
Copyright 2024 Blnk Finance Authors.

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
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/fantasyee/fantasyee/config"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookURL = "https://hooks.slack.example.com/services/T000/B000/XXX"

func TestNewSlackMessage(t *testing.T) {
	at := time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC)
	msg := newSlackMessage("Fantasyee", errors.New(`sequence exhausted for "MBFE"`), at)

	require.Len(t, msg.Blocks, 3)
	assert.Equal(t, "Error From Fantasyee", msg.Blocks[0].Text.Text)
	assert.Equal(t, "*Error:*\nsequence exhausted for \"MBFE\"", msg.Blocks[1].Fields[0].Text)
	assert.Equal(t, "*Time:*\n"+at.Format(time.RFC822), msg.Blocks[2].Fields[0].Text)

	_, err := json.Marshal(msg)
	assert.NoError(t, err)
}

func TestSlackNotification(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	config.MockConfig(&config.Configuration{
		ProjectName:  "Fantasyee",
		Notification: config.Notification{Slack: config.SlackWebhook{WebhookUrl: webhookURL}},
	})

	var received slackMessage
	httpmock.RegisterResponder(http.MethodPost, webhookURL,
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&received); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, "invalid_payload"), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, "ok"), nil
		})

	err := SlackNotification(errors.New("settlement of unit 9 failed"))
	require.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
	require.Len(t, received.Blocks, 3)
	assert.Contains(t, received.Blocks[1].Fields[0].Text, "settlement of unit 9 failed")
}

func TestSlackNotification_WebhookRejects(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	config.MockConfig(&config.Configuration{
		Notification: config.Notification{Slack: config.SlackWebhook{WebhookUrl: webhookURL}},
	})
	httpmock.RegisterResponder(http.MethodPost, webhookURL,
		httpmock.NewStringResponder(http.StatusNotFound, "no_service"))

	err := SlackNotification(errors.New("boom"))
	assert.ErrorContains(t, err, "status 404")
}
