package chinotest

import (
	"cmp"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/chino/internal/domain/search/filter"
	"github.com/kailas-cloud/chino/internal/domain/search/mode"
	"github.com/kailas-cloud/chino/internal/domain/search/request"
)

// hit is a searchable row: a document or a user.
type hit struct {
	id     string
	values map[string]any
	row    any
}

func (s *Server) searchDocuments(w http.ResponseWriter, r *http.Request) {
	req, err := readSearch(r, mode.Documents)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "schema_id")
	sc, ok := s.store.schemas.get(id)
	if !ok {
		s.handleError(w, notFound("schema", id))
		return
	}
	var hits []hit
	for _, d := range s.store.documents.list(func(d document) bool { return d.SchemaID == id && d.IsActive }) {
		hits = append(hits, hit{id: d.ID, values: d.Content, row: d})
	}
	s.answerSearch(w, r, req, sc.Structure.indexed(), "documents", hits)
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	req, err := readSearch(r, mode.Users)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "user_schema_id")
	us, ok := s.store.userSchemas.get(id)
	if !ok {
		s.handleError(w, notFound("user_schema", id))
		return
	}
	indexed := us.Structure.indexed()
	indexed["username"] = "string"
	var hits []hit
	for _, u := range s.store.users.list(func(u user) bool { return u.SchemaID == id && u.IsActive }) {
		values := make(map[string]any, len(u.Attributes)+1)
		for k, v := range u.Attributes {
			values[k] = v
		}
		values["username"] = u.Username
		hits = append(hits, hit{id: u.ID, values: values, row: u})
	}
	s.answerSearch(w, r, req, indexed, "users", hits)
}

func readSearch(r *http.Request, endpoint mode.Endpoint) (request.Request, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return request.Request{}, badRequest("read body: %v", err)
	}
	req, err := request.Decode(body)
	if err != nil {
		return request.Request{}, badRequest("%v", err)
	}
	if !endpoint.Supports(req.ResultType()) {
		return request.Request{}, badRequest("%s search does not support %s", endpoint, req.ResultType())
	}
	return req, nil
}

func (s *Server) answerSearch(
	w http.ResponseWriter, r *http.Request, req request.Request,
	indexed map[string]string, key string, hits []hit,
) {
	leaves := make([]filter.Leaf, 0, len(req.Filters()))
	for _, o := range req.Filters() {
		leaf, err := o.Leaf()
		if err != nil {
			s.handleError(w, badRequest("%v", err))
			return
		}
		if _, ok := indexed[leaf.Field()]; !ok {
			s.handleError(w, badRequest("field %q is not indexed", leaf.Field()))
			return
		}
		leaves = append(leaves, leaf)
	}
	for _, so := range req.Sorts() {
		if _, ok := indexed[so.Field]; !ok {
			s.handleError(w, badRequest("sort field %q is not indexed", so.Field))
			return
		}
	}

	matched := make([]hit, 0, len(hits))
	for _, h := range hits {
		if matchAll(req.FilterType(), leaves, h.values) {
			matched = append(matched, h)
		}
	}
	sortHits(matched, req.Sorts())

	if rt := req.ResultType(); rt == mode.Exists || rt == mode.UsernameExists {
		writeJSON(w, http.StatusOK, map[string]any{
			"count":       len(matched),
			"total_count": len(matched),
			"exists":      len(matched) > 0,
		})
		return
	}

	offset, limit := paging(r)
	page := pageOf(matched, offset, limit)
	data := map[string]any{
		"count":       len(page),
		"total_count": len(matched),
		"limit":       limit,
		"offset":      offset,
	}
	if req.ResultType() == mode.OnlyID {
		ids := make([]string, 0, len(page))
		for _, h := range page {
			ids = append(ids, h.id)
		}
		data["IDs"] = ids
	} else {
		rows := make([]any, 0, len(page))
		for _, h := range page {
			rows = append(rows, h.row)
		}
		data[key] = rows
	}
	writeJSON(w, http.StatusOK, data)
}

// matchAll combines the leaves with and/or. No leaves match everything.
func matchAll(ft mode.FilterType, leaves []filter.Leaf, values map[string]any) bool {
	if len(leaves) == 0 {
		return true
	}
	for _, leaf := range leaves {
		ok := match(leaf, values)
		if ft == mode.Or && ok {
			return true
		}
		if ft != mode.Or && !ok {
			return false
		}
	}
	return ft != mode.Or
}

// match evaluates one clause. Array fields match when any element does.
func match(leaf filter.Leaf, values map[string]any) bool {
	v, present := values[leaf.Field()]
	want := leaf.Value()
	if want.IsNull() {
		eq := !present || v == nil
		if leaf.Operator() == filter.Ne {
			return !eq
		}
		return eq
	}

	switch leaf.Operator() {
	case filter.Ne:
		return !anyElem(v, func(e any) bool { return equal(e, want.Any()) })
	case filter.Nin:
		return !anyElem(v, func(e any) bool { return inList(e, want.Any()) })
	}
	if !present || v == nil {
		return false
	}
	return anyElem(v, func(e any) bool { return test(leaf.Operator(), e, want.Any()) })
}

func test(op filter.Operator, got, want any) bool {
	switch op {
	case filter.Eq:
		return equal(got, want)
	case filter.In:
		return inList(got, want)
	case filter.Gt, filter.Gte, filter.Lt, filter.Lte:
		c, ok := compare(got, want)
		if !ok {
			return false
		}
		switch op {
		case filter.Gt:
			return c > 0
		case filter.Gte:
			return c >= 0
		case filter.Lt:
			return c < 0
		default:
			return c <= 0
		}
	case filter.Wildcard:
		s, ok1 := got.(string)
		pattern, ok2 := want.(string)
		return ok1 && ok2 && wildcard(pattern).MatchString(s)
	default:
		return false
	}
}

func anyElem(v any, fn func(any) bool) bool {
	if arr, ok := v.([]any); ok {
		return slices.ContainsFunc(arr, fn)
	}
	return fn(v)
}

func inList(got, list any) bool {
	arr, ok := list.([]any)
	if !ok {
		return equal(got, list)
	}
	return slices.ContainsFunc(arr, func(e any) bool { return equal(got, e) })
}

func equal(a, b any) bool {
	c, ok := compare(a, b)
	if ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// compare orders numbers numerically and strings lexically. Date and time
// strings in Chino formats compare correctly as strings.
func compare(a, b any) (int, bool) {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return cmp.Compare(fa, fb), true
		}
		return 0, false
	}
	sa, ok1 := a.(string)
	sb, ok2 := b.(string)
	if ok1 && ok2 {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// wildcard turns a pattern with * and ? into an anchored regexp.
func wildcard(pattern string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(pattern)
	quoted = strings.ReplaceAll(quoted, `\*`, ".*")
	quoted = strings.ReplaceAll(quoted, `\?`, ".")
	return regexp.MustCompile("^" + quoted + "$")
}

// sortHits orders hits by the sort keys in priority order. Missing values
// sort first ascending.
func sortHits(hits []hit, sorts []filter.Sort) {
	if len(sorts) == 0 {
		return
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		for _, so := range sorts {
			c := compareValues(a.values[so.Field], b.values[so.Field])
			if so.Order == filter.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c, ok := compare(a, b); ok {
		return c
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
