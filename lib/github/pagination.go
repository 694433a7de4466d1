// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/statusdesk/statusdesk/lib/netutil"
)

// listOptions supplies the query string for a paginated list endpoint.
type listOptions interface {
	queryParams() string
}

// paginate starts a PageIterator at the first page of path, with
// options folded into the query string.
func paginate[T any](client *Client, path string, options listOptions) *PageIterator[T] {
	if query := options.queryParams(); query != "" {
		path += "?" + query
	}
	return &PageIterator[T]{client: client, nextURL: client.baseURL + path}
}

// PageIterator walks a paginated list endpoint one page per Next call.
// GitHub threads pagination through the Link response header, so the
// iterator never computes page numbers — it follows the rel="next" URL
// until the header stops offering one.
//
// Not safe for concurrent use.
type PageIterator[T any] struct {
	client    *Client
	nextURL   string
	exhausted bool
}

// Next returns the next page of items, or (nil, nil) once every page
// has been served. Page fetches go through the same authentication,
// rate limiting, and error handling as any other request.
func (pages *PageIterator[T]) Next(ctx context.Context) ([]T, error) {
	if pages.exhausted || pages.nextURL == "" {
		return nil, nil
	}

	response, err := pages.client.send(ctx, http.MethodGet, pages.nextURL, nil)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, readAPIError(response)
	}

	var items []T
	if err := netutil.DecodeResponse(response.Body, &items); err != nil {
		return nil, fmt.Errorf("github: decoding list page: %w", err)
	}

	pages.nextURL = nextPageLink(response.Header.Get("Link"))
	if pages.nextURL == "" {
		pages.exhausted = true
	}
	return items, nil
}

// Collect drains the iterator and returns every remaining item.
func (pages *PageIterator[T]) Collect(ctx context.Context) ([]T, error) {
	var all []T
	for {
		items, err := pages.Next(ctx)
		if err != nil {
			return all, err
		}
		if items == nil {
			return all, nil
		}
		all = append(all, items...)
	}
}

// nextPageLink pulls the rel="next" target out of an RFC 8288 Link
// header, e.g.
//
//	<https://api.github.com/...?page=2>; rel="next", <...>; rel="last"
//
// Returns "" when the header carries no next relation.
func nextPageLink(header string) string {
	for _, link := range strings.Split(header, ",") {
		target, params, ok := strings.Cut(link, ";")
		if !ok || !strings.Contains(params, `rel="next"`) {
			continue
		}
		target = strings.TrimSpace(target)
		if len(target) >= 2 && target[0] == '<' && target[len(target)-1] == '>' {
			return target[1 : len(target)-1]
		}
	}
	return ""
}
