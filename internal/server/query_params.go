package server

import (
	"errors"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
)

// maxMultipartMemory bounds the part of an upload kept in memory; the rest spills to disk.
const maxMultipartMemory = 8 << 20

// optionalForm returns a pointer to the form value when the field was sent at all.
func optionalForm(c *gin.Context, key string) *string {
	value, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)
	return &value
}

// formFile opens an uploaded file. It returns nil when the field is absent or empty.
func formFile(c *gin.Context, key string) (*productdomain.FileUpload, func(), error) {
	header, err := c.FormFile(key)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	if header.Size == 0 && header.Filename == "" {
		return nil, func() {}, nil
	}

	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return uploadFromHeader(header, f), func() { _ = f.Close() }, nil
}

func uploadFromHeader(header *multipart.FileHeader, f multipart.File) *productdomain.FileUpload {
	return &productdomain.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     f,
	}
}

// allowedMethods lists the methods registered for a path matching reqPath.
func allowedMethods(routes gin.RoutesInfo, reqPath string) []string {
	seen := map[string]struct{}{}
	for _, r := range routes {
		if routeMatches(r.Path, reqPath) {
			seen[r.Method] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func routeMatches(pattern, path string) bool {
	ps := splitPath(pattern)
	xs := splitPath(path)
	for i, seg := range ps {
		if strings.HasPrefix(seg, "*") {
			return true
		}
		if i >= len(xs) {
			return false
		}
		if strings.HasPrefix(seg, ":") {
			continue
		}
		if seg != xs[i] {
			return false
		}
	}
	return len(ps) == len(xs)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
