package assembler

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Managed keys of the engine runtime config.
const (
	keyURL            = "URL"
	keyGameAssetsRoot = "game_assets_root"
	keyVersion        = "version"
)

// EngineValues are the version-derived values written into an engine config.
type EngineValues struct {
	URL            string
	GameAssetsRoot string
	Version        string
}

var errEngineConfigInvalid = errors.New("engine config is not a JSON object")

// RewriteEngineConfig overwrites the managed keys of the engine config at path.
// Other keys keep their values and order. An indented document that already
// holds every managed key keeps its layout byte for byte apart from the
// replaced values; anything else is re-indented with two spaces.
func RewriteEngineConfig(path string, values EngineValues) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read engine config: %w", err)
	}

	if !gjson.ValidBytes(contents) || !gjson.ParseBytes(contents).IsObject() {
		return errEngineConfigInvalid
	}

	keepLayout := bytes.ContainsRune(bytes.TrimSpace(contents), '\n')

	for _, kv := range [...]struct{ key, value string }{
		{keyURL, values.URL},
		{keyGameAssetsRoot, values.GameAssetsRoot},
		{keyVersion, values.Version},
	} {
		// sjson appends new keys inline, which only a reflow can tidy up.
		keepLayout = keepLayout && gjson.GetBytes(contents, kv.key).Exists()

		contents, err = sjson.SetBytes(contents, kv.key, kv.value)
		if err != nil {
			return fmt.Errorf("set %s: %w", kv.key, err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat engine config: %w", err)
	}

	if !keepLayout {
		contents = pretty.Pretty(contents)
	}

	if err = os.WriteFile(path, contents, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write engine config: %w", err)
	}

	return nil
}
