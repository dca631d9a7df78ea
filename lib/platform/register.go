// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"net/http"

	"github.com/flowmove/flowmove/lib/artifact"
)

const pathCreateApp = "/api/client/app/develop/create"

// defaultAppName is the display name registered when a manifest has no
// name key at all.
const defaultAppName = "未命名"

// NewCreateAppRequest builds the registration payload for appID from
// the rewritten manifest. packageMD5 is the checksum handed out with
// the manifest upload assignment.
//
// Text fields that are absent or empty register as "". appType, name
// and uiaType keep a present empty string and default only when the key
// is missing. Dependency lists and customItems pass through verbatim,
// including an explicit null.
func NewCreateAppRequest(appID string, manifest artifact.Manifest, packageMD5 string) CreateAppRequest {
	flowCount := manifest.FlowCount()
	return CreateAppRequest{
		AppID: appID,
		AppPackage: AppPackage{
			Activities:               []any{},
			AppFlowParamList:         []any{},
			AppIcon:                  manifest.StringOr("icon", ""),
			AppType:                  manifest.StringDefault("robot_type", "app"),
			CustomItems:              manifest.GetOr("customItems", CustomItems{UIAType: "PC"}),
			Description:              manifest.StringOr("description", ""),
			ElementLibraryCodes:      []any{},
			EnableViewSource:         "false",
			ExternalDependencies:     manifest.GetOr("external_dependencies", []any{}),
			Instruction:              manifest.StringOr("instruction", ""),
			InternalDependencies:     manifest.GetOr("internaldependencies", []any{}),
			InternalAutoDependencies: manifest.GetOr("internalautodependencies", []any{}),
			IpaasDependencies:        manifest.GetOr("ipaasDependencies", []any{}),
			Name:                     manifest.StringDefault(artifact.KeyName, defaultAppName),
			PackageCode:              "",
			Statistics: Statistics{
				BlockCount: flowCount,
				FlowCount:  flowCount,
			},
			UITags:   "",
			UIAType:  manifest.StringDefault("uia_type", "PC"),
			VideoURL: manifest.StringOr("videoName", ""),
		},
		ElementLibraryStatus: 0,
		GroupID:              "",
		PackageMD5:           packageMD5,
	}
}

// Register creates the catalog entry for an app whose archive and
// manifest have been uploaded. Success is success=true or code 200.
func (session *Session) Register(ctx context.Context, request CreateAppRequest) error {
	var response envelope
	operation := "create app " + request.AppID
	if err := session.call(ctx, operation, http.MethodPost, pathCreateApp, nil, request, &response); err != nil {
		return err
	}
	if !response.ok() {
		return envelopeError(operation, &response)
	}
	return nil
}
