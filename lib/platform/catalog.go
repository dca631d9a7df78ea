// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const (
	pathListApps  = "/api/client/app/develop/list"
	pathAppDetail = "/api/client/app/develop/app/detail"
	pathRecycle   = "/api/client/recycle/recycle"
)

// AppPageIterator fetches the account's catalog one page at a time, in
// server order. It is not safe for concurrent use.
//
// The total page count is taken from each response's page.pages, so
// the walk ends when the server says it should even if the catalog
// changes underneath it. Reset starts a fresh walk from page 1.
type AppPageIterator struct {
	session *Session
	page    int
	pages   int
	done    bool
}

// AppPages returns an iterator over the account's catalog.
func (session *Session) AppPages() *AppPageIterator {
	iterator := &AppPageIterator{session: session}
	iterator.Reset()
	return iterator
}

// Reset rewinds the iterator to the first page.
func (iterator *AppPageIterator) Reset() {
	iterator.page = 1
	iterator.pages = 1
	iterator.done = false
}

// Page returns the number of the page the next call to Next fetches.
func (iterator *AppPageIterator) Page() int { return iterator.page }

// Next fetches the next page. A page with no entries returns an empty,
// non-nil slice. Returns nil, nil once every page has been consumed.
func (iterator *AppPageIterator) Next(ctx context.Context) ([]App, error) {
	if iterator.done || iterator.page > iterator.pages {
		iterator.done = true
		return nil, nil
	}

	client := iterator.session.client
	request := listRequest{
		Name:     "",
		PageType: 1,
		PageDTO:  pageSpec{Page: iterator.page, Size: client.pageSize},
		SortBy:   "4",
	}

	var response listResponse
	operation := fmt.Sprintf("list apps page %d", iterator.page)
	if err := iterator.session.call(ctx, operation, http.MethodPost, pathListApps, nil, request, &response); err != nil {
		return nil, err
	}
	if !response.Success && response.Code != http.StatusOK {
		return nil, envelopeError(operation, &envelope{Code: response.Code, Message: response.Message})
	}

	if response.Page != nil {
		iterator.pages = response.Page.Pages
	}
	iterator.page++

	apps := response.Data
	if apps == nil {
		apps = []App{}
	}
	return apps, nil
}

// ListApps walks every catalog page and returns the entries in request
// order. When a page fails, the entries from earlier pages are
// returned with a *PartialListError; listing is never retried.
func (session *Session) ListApps(ctx context.Context) ([]App, error) {
	iterator := session.AppPages()
	apps := []App{}
	for {
		page := iterator.Page()
		items, err := iterator.Next(ctx)
		if err != nil {
			session.client.logger.Warn("app listing stopped early",
				"username", session.username,
				"page", page,
				"fetched", len(apps),
				"error", err,
			)
			return apps, &PartialListError{Page: page, Fetched: len(apps), Err: err}
		}
		if items == nil {
			return apps, nil
		}
		apps = append(apps, items...)
	}
}

// AppDetail fetches an app's full detail record. Returns an error
// matching ErrNotFound unless the server reports success with data.
func (session *Session) AppDetail(ctx context.Context, appID string) (*AppDetail, error) {
	query := url.Values{
		"appId":           {appID},
		"checkAppRecycle": {"True"},
	}

	var response envelope
	operation := "app detail " + appID
	if err := session.call(ctx, operation, http.MethodGet, pathAppDetail, query, nil, &response); err != nil {
		return nil, err
	}
	if !response.Success || !response.hasData() {
		if response.Message != "" {
			return nil, fmt.Errorf("app %s: %s: %w", appID, response.Message, ErrNotFound)
		}
		return nil, fmt.Errorf("app %s: %w", appID, ErrNotFound)
	}

	detail := &AppDetail{}
	if err := json.Unmarshal(response.Data, detail); err != nil {
		return nil, &APIError{Operation: operation, StatusCode: http.StatusOK, Message: "detail is not an object: " + err.Error()}
	}
	if err := json.Unmarshal(response.Data, &detail.Fields); err != nil {
		return nil, &APIError{Operation: operation, StatusCode: http.StatusOK, Message: "detail is not an object: " + err.Error()}
	}
	if detail.AppID == "" {
		detail.AppID = appID
	}
	return detail, nil
}

// DownloadURL returns the artifact read location from detail, using the
// field configured on the client. A missing or empty field is a
// *MissingFieldError naming the fields that were present.
func (client *Client) DownloadURL(detail *AppDetail) (string, error) {
	field := client.downloadURLField
	if field == "" {
		return "", fmt.Errorf("platform: no download URL field configured")
	}
	if value, ok := detail.StringField(field); ok {
		return value, nil
	}
	return "", &MissingFieldError{AppID: detail.AppID, Field: field, Available: detail.FieldNames()}
}

// Trash moves an app to the recycle bin. Trashing an app that is
// already there is whatever the server says it is.
func (session *Session) Trash(ctx context.Context, appID string) error {
	var response envelope
	operation := "trash app " + appID
	if err := session.call(ctx, operation, http.MethodPost, pathRecycle, nil, recycleRequest{AppID: appID}, &response); err != nil {
		return err
	}
	if !response.ok() {
		return envelopeError(operation, &response)
	}
	return nil
}
