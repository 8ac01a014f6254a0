package sources

import (
	"context"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/apidata"
)

const (
	sourceFDroid     = "fdroid"
	sourceFDroidData = "fdroiddata"
)

// FDroidRepo reads the suggested release of a package from an F-Droid repository index.
type FDroidRepo struct {
	client  *Client
	repoURL string
	pkg     string
}

// NewFDroidRepo expects the repository URL that contains index-v1.json.
func NewFDroidRepo(client *Client, repoURL, pkg string) *FDroidRepo {
	if !strings.HasSuffix(repoURL, "/") {
		repoURL += "/"
	}
	return &FDroidRepo{client: client, repoURL: repoURL, pkg: pkg}
}

func (r *FDroidRepo) Flavor(ctx context.Context) (apidata.Flavor, error) {
	body, err := r.client.Get(ctx, sourceFDroid, r.repoURL+"index-v1.json", nil)
	if err != nil {
		return apidata.Flavor{}, err
	}
	return parseIndex(body, r.repoURL, r.pkg)
}

// parseIndex picks the app's suggested version and, when the repository still
// carries that build, its APK location and checksum.
func parseIndex(body []byte, repoURL, pkg string) (apidata.Flavor, error) {
	if !gjson.ValidBytes(body) {
		return apidata.Flavor{}, malformed(sourceFDroid, "index is not valid JSON")
	}
	index := gjson.ParseBytes(body)

	var app gjson.Result
	index.Get("apps").ForEach(func(_, v gjson.Result) bool {
		if v.Get("packageName").String() == pkg {
			app = v
			return false
		}
		return true
	})
	if !app.Exists() {
		return apidata.Flavor{}, malformed(sourceFDroid, "package %s not found in %sindex-v1.json", pkg, repoURL)
	}

	flavor := apidata.Flavor{Version: app.Get("suggestedVersionName").String()}
	// suggestedVersionCode is a string in apps but a number in packages
	code, err := strconv.Atoi(app.Get("suggestedVersionCode").String())
	if err != nil {
		return apidata.Flavor{}, malformed(sourceFDroid, "invalid suggestedVersionCode for %s: %v", pkg, err)
	}
	flavor.VersionCode = code

	index.Get("packages").ForEach(func(k, versions gjson.Result) bool {
		if k.String() != pkg {
			return true
		}
		versions.ForEach(func(_, v gjson.Result) bool {
			if int(v.Get("versionCode").Int()) != code {
				return true
			}
			flavor.Version = v.Get("versionName").String()
			flavor.APK = repoURL + v.Get("apkName").String()
			flavor.Hash = v.Get("hash").String()
			flavor.HashType = v.Get("hashType").String()
			return false
		})
		return false
	})
	return flavor, nil
}

// FDroidData reads the release announced in an fdroiddata metadata file.
type FDroidData struct {
	client      *Client
	metadataURL string
}

func NewFDroidData(client *Client, metadataURL string) *FDroidData {
	return &FDroidData{client: client, metadataURL: metadataURL}
}

type fdroidMetadata struct {
	CurrentVersion     string `yaml:"CurrentVersion"`
	CurrentVersionCode int    `yaml:"CurrentVersionCode"`
}

func (d *FDroidData) Release(ctx context.Context) (apidata.Release, error) {
	body, err := d.client.Get(ctx, sourceFDroidData, d.metadataURL, nil)
	if err != nil {
		return apidata.Release{}, err
	}
	return parseMetadata(body)
}

func parseMetadata(body []byte) (apidata.Release, error) {
	var meta fdroidMetadata
	if err := yaml.Unmarshal(body, &meta); err != nil {
		return apidata.Release{}, malformed(sourceFDroidData, "decoding metadata: %v", err)
	}
	if meta.CurrentVersion == "" || meta.CurrentVersionCode == 0 {
		return apidata.Release{}, malformed(sourceFDroidData, "metadata has no current version")
	}
	return apidata.Release{Version: meta.CurrentVersion, VersionCode: meta.CurrentVersionCode}, nil
}
