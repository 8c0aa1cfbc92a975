package rod

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"text/template"

	"github.com/fwojciec/harvest"
)

// Extension bundle file names.
const (
	ManifestFile   = "manifest.json"
	BackgroundFile = "background.js"
)

type manifest struct {
	ManifestVersion int        `json:"manifest_version"`
	Name            string     `json:"name"`
	Version         string     `json:"version"`
	Permissions     []string   `json:"permissions"`
	HostPermissions []string   `json:"host_permissions"`
	Background      background `json:"background"`
	MinimumChrome   string     `json:"minimum_chrome_version"`
}

type background struct {
	ServiceWorker string `json:"service_worker"`
}

var proxyManifest = manifest{
	ManifestVersion: 3,
	Name:            "harvest proxy",
	Version:         "1.0.0",
	Permissions:     []string{"proxy", "storage", "webRequest", "webRequestAuthProvider"},
	HostPermissions: []string{"<all_urls>"},
	Background:      background{ServiceWorker: BackgroundFile},
	MinimumChrome:   "108",
}

// The js function escapes values for use inside JavaScript string literals.
var backgroundTemplate = template.Must(template.New(BackgroundFile).Parse(`const config = {
  mode: "fixed_servers",
  rules: {
    singleProxy: {
      scheme: "http",
      host: "{{js .Host}}",
      port: {{.Port}}
    },
    bypassList: ["localhost"]
  }
};

chrome.proxy.settings.set({value: config, scope: "regular"}, function () {});
{{if .User}}
chrome.webRequest.onAuthRequired.addListener(
  function (details, callback) {
    callback({
      authCredentials: {
        username: "{{js .User}}",
        password: "{{js .Pass}}"
      }
    });
  },
  {urls: ["<all_urls>"]},
  ["asyncBlocking"]
);
{{end}}`))

// WriteProxyExtension writes a browser extension that routes all traffic
// through p into a new temporary directory and returns its path. The
// caller owns the directory and must remove it.
func WriteProxyExtension(p *harvest.Proxy) (dir string, err error) {
	if p == nil {
		return "", harvest.Errorf(harvest.EINVALID, "proxy required")
	}
	if err := p.Validate(); err != nil {
		return "", err
	}

	var js bytes.Buffer
	if err := backgroundTemplate.Execute(&js, p); err != nil {
		return "", harvest.WrapError(harvest.ERENDER, err, "rendering proxy extension script")
	}
	mf, err := json.MarshalIndent(proxyManifest, "", "  ")
	if err != nil {
		return "", harvest.WrapError(harvest.ERENDER, err, "encoding proxy extension manifest")
	}

	dir, err = os.MkdirTemp("", "harvest-proxy-*")
	if err != nil {
		return "", harvest.WrapError(harvest.ERENDER, err, "creating proxy extension directory")
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(dir)
		}
	}()

	if err := os.WriteFile(filepath.Join(dir, ManifestFile), mf, 0o600); err != nil {
		return "", harvest.WrapError(harvest.ERENDER, err, "writing %s", ManifestFile)
	}
	if err := os.WriteFile(filepath.Join(dir, BackgroundFile), js.Bytes(), 0o600); err != nil {
		return "", harvest.WrapError(harvest.ERENDER, err, "writing %s", BackgroundFile)
	}
	return dir, nil
}
