package indexer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
)

// manifestDetector describes how to recognize and parse one ecosystem's
// package manifest.
type manifestDetector struct {
	ecosystem string
	parse     func([]byte) (name, version string)
}

// manifestDetectors maps a manifest file name to the ecosystem it declares.
// go.mod covers the teacher's own ecosystem; the rest follow the same
// name/version-from-manifest shape for the non-Go source the parser
// registry now also recognizes (TypeScript/JavaScript).
var manifestDetectors = map[string]manifestDetector{
	"go.mod":         {ecosystem: "go", parse: parseGoModManifest},
	"package.json":   {ecosystem: "npm", parse: parseNodeManifest},
	"Cargo.toml":     {ecosystem: "cargo", parse: parseTomlManifest},
	"pyproject.toml": {ecosystem: "pypi", parse: parseTomlManifest},
}

// detectPackages walks rootPath for manifest files manifestDetectors
// recognizes. It returns one storage.Package per manifest found, and a
// directory index (manifest's containing dir, relative to rootPath -> the
// package's ID) used to assign ownership to every source file beneath it.
func detectPackages(rootPath string) ([]*storage.Package, map[string]string) {
	var packages []*storage.Package
	dirIndex := make(map[string]string)

	_ = filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if info.Name() == "vendor" || info.Name() == "node_modules" || (strings.HasPrefix(info.Name(), ".") && path != rootPath) {
				return filepath.SkipDir
			}
			return nil
		}

		det, ok := manifestDetectors[info.Name()]
		if !ok {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		relManifest, relErr := filepath.Rel(rootPath, path)
		if relErr != nil {
			relManifest = path
		}
		relDir := filepath.Dir(relManifest)

		name, version := det.parse(content)
		if name == "" {
			name = filepath.Base(filepath.Dir(path))
		}

		pkg := &storage.Package{
			ID:           relManifest,
			Name:         name,
			Version:      version,
			ManifestPath: relManifest,
			Ecosystem:    det.ecosystem,
			RootDir:      relDir,
		}
		packages = append(packages, pkg)
		dirIndex[relDir] = pkg.ID
		return nil
	})

	return packages, dirIndex
}

// packageForFile resolves the package owning relFilePath by walking up from
// its directory to the nearest ancestor with a registered manifest. Most
// repos have one manifest at the root, so this usually resolves in one hop;
// a monorepo with nested manifests resolves to the innermost one.
func packageForFile(dirIndex map[string]string, relFilePath string) (string, bool) {
	dir := filepath.Dir(relFilePath)
	for {
		if id, ok := dirIndex[dir]; ok {
			return id, true
		}
		if dir == "." || dir == string(filepath.Separator) {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func parseGoModManifest(content []byte) (name, version string) {
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			name = strings.TrimSpace(strings.TrimPrefix(line, "module"))
		}
	}
	return name, ""
}

func parseNodeManifest(content []byte) (name, version string) {
	var pkg struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(content, &pkg); err != nil {
		return "", ""
	}
	return pkg.Name, pkg.Version
}

var (
	tomlNameRe    = regexp.MustCompile(`(?m)^\s*name\s*=\s*"([^"]+)"`)
	tomlVersionRe = regexp.MustCompile(`(?m)^\s*version\s*=\s*"([^"]+)"`)
)

// parseTomlManifest extracts top-level name/version from Cargo.toml or
// pyproject.toml with a couple of targeted regexes rather than a full TOML
// parser; package detection only needs these two fields, not the rest of
// the manifest's dependency graph.
func parseTomlManifest(content []byte) (name, version string) {
	if m := tomlNameRe.FindSubmatch(content); m != nil {
		name = string(m[1])
	}
	if m := tomlVersionRe.FindSubmatch(content); m != nil {
		version = string(m[1])
	}
	return name, version
}
