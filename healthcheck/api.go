// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://hc-ping.com"

var (
	ErrStatus = errors.New("status code is invalid")
)

// Client pings a healthchecks.io check. A client with an empty PingID does
// nothing.
type Client struct {
	PingID  string
	BaseURL string

	client *resty.Client
}

func New(pingID string) *Client {
	return &Client{
		PingID:  pingID,
		BaseURL: DefaultBaseURL,
		client:  resty.New(),
	}
}

// Start signals that a run began
func (hc *Client) Start(ctx context.Context) error {
	return hc.ping(ctx, "/start", "")
}

// Success signals that a run finished; msg is attached as the ping body
func (hc *Client) Success(ctx context.Context, msg string) error {
	return hc.ping(ctx, "", msg)
}

// Fail signals that a run failed; msg is attached as the ping body
func (hc *Client) Fail(ctx context.Context, msg string) error {
	return hc.ping(ctx, "/fail", msg)
}

func (hc *Client) ping(ctx context.Context, suffix, body string) error {
	if hc == nil || hc.PingID == "" {
		return nil
	}

	client := hc.client
	if client == nil {
		client = resty.New()
	}

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(body).
		Post(fmt.Sprintf("%s/%s%s", strings.TrimSuffix(hc.BaseURL, "/"), hc.PingID, suffix))

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
