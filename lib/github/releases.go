// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Release is a published GitHub release.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	HTMLURL     string    `json:"html_url"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

// Asset is a file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// DownloadURLs returns the browser download URL of every asset, in
// release order.
func (release *Release) DownloadURLs() []string {
	urls := make([]string, 0, len(release.Assets))
	for _, asset := range release.Assets {
		if asset.BrowserDownloadURL != "" {
			urls = append(urls, asset.BrowserDownloadURL)
		}
	}
	return urls
}

// LatestRelease returns the most recent non-draft, non-prerelease
// release of owner/repo. A repository with no releases yields an
// *APIError for which IsNotFound is true.
func (client *Client) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	var release Release
	if err := client.get(ctx, repoPath(owner, repo)+"/releases/latest", &release); err != nil {
		return nil, err
	}
	return &release, nil
}

// NewestStableRelease returns the newest non-draft, non-prerelease
// release of owner/repo. When /releases/latest answers 404 it walks the
// release list, newest first, and returns the first stable entry. The
// 404 from /releases/latest is returned when the list has none.
func (client *Client) NewestStableRelease(ctx context.Context, owner, repo string) (*Release, error) {
	release, err := client.LatestRelease(ctx, owner, repo)
	if !IsNotFound(err) {
		return release, err
	}
	client.logger.Debug("no latest release, scanning the release list", "repo", owner+"/"+repo)

	iterator := client.ListReleases(owner, repo)
	for {
		page, listErr := iterator.Next(ctx)
		if listErr != nil {
			if IsNotFound(listErr) {
				return nil, err
			}
			return nil, listErr
		}
		if page == nil {
			return nil, err
		}
		for index := range page {
			if !page[index].Draft && !page[index].Prerelease {
				return &page[index], nil
			}
		}
	}
}

// ListReleases returns an iterator over all releases of owner/repo,
// newest first.
func (client *Client) ListReleases(owner, repo string) *PageIterator[Release] {
	return list[Release](client, repoPath(owner, repo)+"/releases?per_page=30")
}

func repoPath(owner, repo string) string {
	return fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo))
}
