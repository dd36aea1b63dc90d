package content

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/labstack/gommon/log"
)

// DefaultExtensions are the recognized content file extensions, in lookup order.
var DefaultExtensions = []string{".mdx", ".md"}

// Logger receives diagnostics about files that could not be read. Both
// echo.Logger and gommon's *log.Logger satisfy it.
type Logger interface {
	Errorf(format string, args ...interface{})
}

// Store loads content items from a flat directory. It holds no state
// beyond its configuration and is safe for concurrent use.
type Store struct {
	fsys       fs.FS
	extensions []string
	logger     Logger
}

// Option configures a Store.
type Option func(*Store)

// WithExtensions sets the recognized file extensions, tried in order when
// resolving a slug.
func WithExtensions(exts ...string) Option {
	return func(s *Store) {
		var cleaned []string
		for _, e := range FilterEmpty(exts) {
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			cleaned = append(cleaned, e)
		}
		if len(cleaned) > 0 {
			s.extensions = cleaned
		}
	}
}

// WithLogger sets the logger used for read and parse failures.
func WithLogger(l Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore returns a Store reading from dir on the local filesystem.
func NewStore(dir string, opts ...Option) *Store {
	return NewStoreFS(os.DirFS(dir), opts...)
}

// NewStoreFS returns a Store reading from the root of fsys.
func NewStoreFS(fsys fs.FS, opts ...Option) *Store {
	s := &Store{
		fsys:       fsys,
		extensions: append([]string(nil), DefaultExtensions...),
		logger:     log.New("content"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListSlugs returns the slug of every content file in directory order.
// A missing directory yields no slugs.
func (s *Store) ListSlugs() []string {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Errorf("content: list: %v", err)
		}
		return nil
	}
	seen := make(map[string]struct{}, len(entries))
	var slugs []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		slug, ok := s.slugFor(e.Name())
		if !ok {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		slugs = append(slugs, slug)
	}
	return slugs
}

func (s *Store) slugFor(name string) (string, bool) {
	ext := path.Ext(name)
	if ext == "" {
		return "", false
	}
	for _, want := range s.extensions {
		if ext == want {
			slug := strings.TrimSuffix(name, ext)
			return slug, slug != ""
		}
	}
	return "", false
}

// GetBySlug loads and parses one item. It reports false when the slug is
// invalid, the file does not exist, or the file cannot be read or parsed;
// the latter two are logged.
func (s *Store) GetBySlug(slug string) (Item, bool) {
	if !validSlug(slug) {
		return Item{}, false
	}
	for _, ext := range s.extensions {
		name := slug + ext
		data, err := fs.ReadFile(s.fsys, name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			s.logger.Errorf("content: read %s: %v", name, err)
			return Item{}, false
		}
		item, err := parseItem(slug, data)
		if err != nil {
			s.logger.Errorf("content: parse %s: %v", name, err)
			return Item{}, false
		}
		return item, true
	}
	return Item{}, false
}

// ListAll loads every item, skipping the ones that cannot be loaded.
func (s *Store) ListAll() []Item {
	slugs := s.ListSlugs()
	items := make([]Item, 0, len(slugs))
	for _, slug := range slugs {
		if item, ok := s.GetBySlug(slug); ok {
			items = append(items, item)
		}
	}
	return items
}

// ListTags returns a sorted, deduplicated slice of all tags.
func (s *Store) ListTags() []string {
	set := make(map[string]struct{})
	for _, item := range s.ListAll() {
		for _, t := range item.Metadata.Tags {
			set[t] = struct{}{}
		}
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result
}

// ListByTag returns the items carrying tag, or every item if tag is empty.
func (s *Store) ListByTag(tag string) []Item {
	items := s.ListAll()
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return items
	}
	var filtered []Item
	for _, item := range items {
		if item.HasTag(tag) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// ListByCategory returns the items listing category, or every item if
// category is empty.
func (s *Store) ListByCategory(category string) []Item {
	items := s.ListAll()
	category = strings.TrimSpace(category)
	if category == "" {
		return items
	}
	var filtered []Item
	for _, item := range items {
		if item.InCategory(category) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func validSlug(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	if strings.ContainsAny(slug, `/\`) {
		return false
	}
	return fs.ValidPath(slug)
}

func parseItem(slug string, data []byte) (Item, error) {
	var meta Metadata
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return Item{}, fmt.Errorf("front matter: %w", err)
	}
	meta.normalize()
	if err := meta.Validate(); err != nil {
		return Item{}, fmt.Errorf("front matter: %w", err)
	}
	return Item{
		Slug:     slug,
		Metadata: meta,
		Content:  string(body),
	}, nil
}
