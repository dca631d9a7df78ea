// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"encoding/json"
	"sort"
)

// envelope is the common response wrapper of the client API.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// hasData reports whether the envelope carries a non-null data value.
func (response *envelope) hasData() bool {
	return len(response.Data) > 0 && string(response.Data) != "null"
}

// ok is the success test used by mutating endpoints: either flag is
// accepted.
func (response *envelope) ok() bool {
	return response.Success || response.Code == 200
}

// loginResponse is the OAuth token endpoint response.
type loginResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token"`
	Message     string `json:"msg"`
}

// listRequest is the body of the app listing endpoint.
type listRequest struct {
	// GroupID is always null: list across all groups.
	GroupID  *string  `json:"groupId"`
	Name     string   `json:"name"`
	PageType int      `json:"pageType"`
	PageDTO  pageSpec `json:"pageDTO"`
	SortBy   string   `json:"sortBy"`
}

type pageSpec struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// listResponse is the app listing endpoint response.
type listResponse struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"msg"`
	Data    []App       `json:"data"`
	Page    *pageReport `json:"page"`
}

type pageReport struct {
	Pages int `json:"pages"`
	Total int `json:"total"`
}

// App is a remote catalog entry.
type App struct {
	// AppID is the app's identity.
	AppID string `json:"appId"`

	// AppName is the display name.
	AppName string `json:"appName"`

	// UpdateTime is the server's last-update timestamp, verbatim.
	UpdateTime string `json:"updateTime,omitempty"`
}

// AppDetail is an app's full detail record. Known fields are decoded;
// Fields keeps every field so callers can read ones this package does
// not model.
type AppDetail struct {
	AppID            string `json:"appId"`
	AppName          string `json:"appName"`
	BotReadURL       string `json:"botReadUrl"`
	PackageBotURL    string `json:"packageBotUrl"`
	PackageSchemaURL string `json:"packageSchemaUrl"`

	// Fields is the raw detail object.
	Fields map[string]json.RawMessage `json:"-"`
}

// StringField returns the named field if it is a non-empty string.
func (detail *AppDetail) StringField(name string) (string, bool) {
	raw, ok := detail.Fields[name]
	if !ok {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil || value == "" {
		return "", false
	}
	return value, true
}

// FieldNames returns the detail's field names, sorted.
func (detail *AppDetail) FieldNames() []string {
	names := make([]string, 0, len(detail.Fields))
	for name := range detail.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// recycleRequest is the body of the trash endpoint.
type recycleRequest struct {
	AppID string `json:"appId"`
}

// ArtifactKind selects which upload slot to assign.
type ArtifactKind int

const (
	// KindManifest is the standalone package.json upload.
	KindManifest ArtifactKind = iota

	// KindArchive is the .bot package upload.
	KindArchive
)

func (kind ArtifactKind) String() string {
	if kind == KindArchive {
		return "archive"
	}
	return "manifest"
}

// assignRequest is the body of the upload-assignment endpoint.
type assignRequest struct {
	AppID   string `json:"appId"`
	AppType string `json:"appType"`
	Version string `json:"version"`
	// IsBot is the string "true" or "false".
	IsBot string `json:"isBot"`
}

// UploadAssignment is a write-once upload destination.
type UploadAssignment struct {
	// UploadURL is the pre-signed PUT location.
	UploadURL string `json:"uploadUrl"`

	// FileKey is the object key the upload will be stored under.
	FileKey string `json:"fileKey"`

	// ReadURL is where the object can be read after upload.
	ReadURL string `json:"readUrl"`

	// FileKeyMD5 is the checksum the platform will validate against at
	// registration. It is authoritative; never recompute it locally.
	FileKeyMD5 string `json:"fileKeyMd5"`
}

// CreateAppRequest is the body of the app-creation endpoint.
type CreateAppRequest struct {
	AppID                string     `json:"appId"`
	AppPackage           AppPackage `json:"appPackage"`
	ElementLibraryStatus int        `json:"elementLibraryStatus"`
	GroupID              string     `json:"groupId"`
	PackageMD5           string     `json:"packageMd5"`
}

// AppPackage is the package metadata registered with a new app. Fields
// typed any pass manifest values through verbatim.
type AppPackage struct {
	Activities               []any      `json:"activities"`
	AppFlowParamList         []any      `json:"appFlowParamList"`
	AppIcon                  string     `json:"appIcon"`
	AppType                  string     `json:"appType"`
	CustomItems              any        `json:"customItems"`
	Description              string     `json:"description"`
	ElementLibraryCodes      []any      `json:"elementLibraryCodes"`
	EnableViewSource         string     `json:"enableViewSource"`
	ExternalDependencies     any        `json:"externalDependencies"`
	Instruction              string     `json:"instruction"`
	InternalDependencies     any        `json:"internalDependencies"`
	InternalAutoDependencies any        `json:"internalautodependencies"`
	IpaasDependencies        any        `json:"ipaasDependencies"`
	Name                     string     `json:"name"`
	PackageCode              string     `json:"packageCode"`
	Statistics               Statistics `json:"statistics"`
	UITags                   string     `json:"uiTags"`
	UIAType                  string     `json:"uiaType"`
	VideoURL                 string     `json:"videoUrl"`
}

// Statistics are the package counters shown in the platform UI.
type Statistics struct {
	BlockCount      int `json:"blockCount"`
	FlowCount       int `json:"flowCount"`
	MagicBlockCount int `json:"magicBlockCount"`
	SourceLineCount int `json:"sourceLineCount"`
}

// CustomItems is the default customItems value for manifests that do
// not carry one.
type CustomItems struct {
	GifURL    string `json:"gifUrl"`
	ImageName string `json:"imageName"`
	ImageURL  string `json:"imageUrl"`
	UIAType   string `json:"uiaType"`
	VideoURL  string `json:"videoUrl"`
}
