package parser

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

var (
	ErrNoManifest = errors.New("imsmanifest.xml not found")
	ErrUnsafePath = errors.New("unsafe path in package")
)

// maxEntrySize bounds a single decompressed package entry.
const maxEntrySize = 32 << 20

type Manifest struct {
	Identifier string             `json:"identifier,omitempty"`
	Resources  []ManifestResource `json:"resources"`
}

type ManifestResource struct {
	Identifier string   `json:"identifier"`
	Href       string   `json:"href"`
	Type       string   `json:"type"`
	Files      []string `json:"files,omitempty"`
}

// IsItem reports whether the resource points at QTI item or test markup.
func (r ManifestResource) IsItem() bool {
	h := strings.ToLower(r.Href)
	return strings.HasSuffix(h, ".xml") && !strings.Contains(h, "manifest")
}

// PackageFile is one QTI document from a content package.
type PackageFile struct {
	Href       string `json:"href"`
	Identifier string `json:"identifier"`
	Content    string `json:"content"`
}

type Package struct {
	Manifest Manifest      `json:"manifest"`
	Items    []PackageFile `json:"items"`
}

type imsManifest struct {
	XMLName    xml.Name      `xml:"manifest"`
	Identifier string        `xml:"identifier,attr"`
	Resources  []imsResource `xml:"resources>resource"`
}
type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Href       string    `xml:"href,attr"`
	Type       string    `xml:"type,attr"`
	Files      []imsFile `xml:"file"`
}
type imsFile struct {
	Href string `xml:"href,attr"`
}

// cleanEntry rejects absolute names and names escaping the package root.
func cleanEntry(name string) (string, error) {
	n := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(n, "/") || strings.Contains(n, ":") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	n = path.Clean(n)
	if n == ".." || strings.HasPrefix(n, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return n, nil
}

// ReadPackage loads an IMS content package from memory. Item files named by
// the manifest are returned in manifest order; when the manifest lists none,
// every other .xml file in the archive is used, sorted by name.
func ReadPackage(r io.ReaderAt, size int64) (Package, error) {
	zr, err := zip.NewReader(r, size)
	if errors.Is(err, zip.ErrInsecurePath) {
		return Package{}, fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if err != nil {
		return Package{}, err
	}
	files := map[string]*zip.File{}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		n, err := cleanEntry(f.Name)
		if err != nil {
			return Package{}, err
		}
		files[n] = f
	}

	var mfFile *zip.File
	for _, cand := range []string{"imsmanifest.xml", "manifest.xml"} {
		if f, ok := files[cand]; ok {
			mfFile = f
			break
		}
	}
	if mfFile == nil {
		return Package{}, ErrNoManifest
	}
	b, err := readEntry(mfFile)
	if err != nil {
		return Package{}, err
	}
	var mf imsManifest
	if err := xml.Unmarshal(b, &mf); err != nil {
		return Package{}, fmt.Errorf("manifest: %w", err)
	}

	var pkg Package
	pkg.Manifest.Identifier = mf.Identifier
	pkg.Manifest.Resources = []ManifestResource{}
	pkg.Items = []PackageFile{}
	for _, r := range mf.Resources {
		res := ManifestResource{Identifier: r.Identifier, Href: r.Href, Type: r.Type}
		for _, f := range r.Files {
			res.Files = append(res.Files, f.Href)
		}
		pkg.Manifest.Resources = append(pkg.Manifest.Resources, res)
		if !res.IsItem() {
			continue
		}
		href, err := cleanEntry(r.Href)
		if err != nil {
			return Package{}, err
		}
		f, ok := files[href]
		if !ok {
			return Package{}, fmt.Errorf("resource %q: %s missing from package", r.Identifier, r.Href)
		}
		body, err := readEntry(f)
		if err != nil {
			return Package{}, err
		}
		pkg.Items = append(pkg.Items, PackageFile{Href: href, Identifier: r.Identifier, Content: string(body)})
	}

	if len(pkg.Items) == 0 {
		var names []string
		for n := range files {
			if f := (ManifestResource{Href: n}); f.IsItem() {
				names = append(names, n)
			}
		}
		sort.Strings(names)
		for _, n := range names {
			body, err := readEntry(files[n])
			if err != nil {
				return Package{}, err
			}
			pkg.Items = append(pkg.Items, PackageFile{Href: n, Content: string(body)})
		}
	}
	return pkg, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxEntrySize {
		return nil, fmt.Errorf("%s: entry too large", f.Name)
	}
	return b, nil
}
