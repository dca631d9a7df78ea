// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/flowmove/flowmove/lib/netutil"
)

// PageIterator walks a paginated list endpoint by following the Link
// header. Not safe for concurrent use.
type PageIterator[T any] struct {
	client  *Client
	nextURL string
}

// Next returns the next page, or nil, nil once the last page has been
// returned.
func (iterator *PageIterator[T]) Next(ctx context.Context) ([]T, error) {
	if iterator.nextURL == "" {
		return nil, nil
	}

	response, err := iterator.client.doRaw(ctx, iterator.nextURL)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, parseAPIError(response)
	}

	items := []T{}
	if err := netutil.DecodeResponse(response.Body, &items); err != nil {
		return nil, fmt.Errorf("github: decoding page: %w", err)
	}
	iterator.nextURL = parseLinkNext(response.Header.Get("Link"))
	return items, nil
}

// parseLinkNext returns the rel="next" target of an RFC 8288 Link
// header, or "" when there is none:
//
//	<https://api.github.com/...?page=2>; rel="next", <...>; rel="last"
func parseLinkNext(header string) string {
	for _, link := range strings.Split(header, ",") {
		target, params, found := strings.Cut(strings.TrimSpace(link), ";")
		if !found || !strings.Contains(params, `rel="next"`) {
			continue
		}
		target = strings.TrimSpace(target)
		if strings.HasPrefix(target, "<") && strings.HasSuffix(target, ">") {
			return target[1 : len(target)-1]
		}
	}
	return ""
}
