package chinotest

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/chino/internal/domain"
	domconsent "github.com/kailas-cloud/chino/internal/domain/consent"
)

func (s *Server) routes(r chi.Router) {
	r.Route("/repositories", func(r chi.Router) {
		r.Post("/", s.createRepository)
		r.Get("/", s.listRepositories)
		r.Get("/{repository_id}", s.getRepository)
		r.Put("/{repository_id}", s.updateRepository)
		r.Delete("/{repository_id}", s.deleteRepository)
		r.Post("/{repository_id}/schemas", s.createSchema)
		r.Get("/{repository_id}/schemas", s.listSchemas)
	})
	r.Route("/schemas/{schema_id}", func(r chi.Router) {
		r.Get("/", s.getSchema)
		r.Put("/", s.updateSchema)
		r.Delete("/", s.deleteSchema)
		r.Post("/documents", s.createDocument)
		r.Get("/documents", s.listDocuments)
	})
	r.Route("/documents/{document_id}", func(r chi.Router) {
		r.Get("/", s.getDocument)
		r.Put("/", s.updateDocument)
		r.Delete("/", s.deleteDocument)
	})
	r.Route("/user_schemas", func(r chi.Router) {
		r.Post("/", s.createUserSchema)
		r.Get("/", s.listUserSchemas)
		r.Get("/{user_schema_id}", s.getUserSchema)
		r.Put("/{user_schema_id}", s.updateUserSchema)
		r.Delete("/{user_schema_id}", s.deleteUserSchema)
		r.Post("/{user_schema_id}/users", s.createUser)
		r.Get("/{user_schema_id}/users", s.listUsers)
	})
	r.Route("/users", func(r chi.Router) {
		r.Get("/me", s.me)
		r.Get("/{user_id}", s.getUser)
		r.Put("/{user_id}", s.updateUser)
		r.Delete("/{user_id}", s.deleteUser)
	})
	r.Route("/groups", func(r chi.Router) {
		r.Post("/", s.createGroup)
		r.Get("/", s.listGroups)
		r.Get("/{group_id}", s.getGroup)
		r.Put("/{group_id}", s.updateGroup)
		r.Delete("/{group_id}", s.deleteGroup)
		r.Post("/{group_id}/users/{user_id}", s.addGroupUser)
		r.Delete("/{group_id}/users/{user_id}", s.removeGroupUser)
	})
	r.Route("/collections", func(r chi.Router) {
		r.Post("/", s.createCollection)
		r.Get("/", s.listCollections)
		r.Get("/{collection_id}", s.getCollection)
		r.Put("/{collection_id}", s.updateCollection)
		r.Delete("/{collection_id}", s.deleteCollection)
		r.Get("/{collection_id}/documents", s.listCollectionDocuments)
		r.Post("/{collection_id}/documents/{document_id}", s.addCollectionDocument)
		r.Delete("/{collection_id}/documents/{document_id}", s.removeCollectionDocument)
	})
	r.Route("/perms/{action}/{resource_type}", func(r chi.Router) {
		r.Post("/{subject_type}/{subject_id}", s.permissions)
		r.Post("/{resource_id}/{subject_type}/{subject_id}", s.permissions)
		r.Post("/{resource_id}/{resource_child_type}/{subject_type}/{subject_id}", s.permissions)
	})
	r.Route("/consents", func(r chi.Router) {
		r.Post("/", s.createConsent)
		r.Get("/", s.listConsents)
		r.Get("/{consent_id}", s.getConsent)
		r.Put("/{consent_id}", s.updateConsent)
		r.Delete("/{consent_id}", s.withdrawConsent)
		r.Get("/{consent_id}/history", s.consentHistory)
	})
	r.Post("/search/documents/{schema_id}", s.searchDocuments)
	r.Post("/search/users/{user_schema_id}", s.searchUsers)
}

// pageOf cuts one page out of items.
func pageOf[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+limit, len(items))]
}

// list writes one page of items under key with the paging members.
func list[T any](w http.ResponseWriter, r *http.Request, key string, items []T) {
	offset, limit := paging(r)
	page := pageOf(items, offset, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(page),
		"total_count": len(items),
		"limit":       limit,
		"offset":      offset,
		key:           page,
	})
}

func forced(r *http.Request) bool { return r.URL.Query().Get("force") == "true" }

// --- repositories ---

func (s *Server) createRepository(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	repo := repository{ID: newID(), Description: body.Description, meta: newMeta()}
	s.store.repositories.put(repo.ID, repo)
	writeJSON(w, http.StatusOK, map[string]any{"repository": repo})
}

func (s *Server) listRepositories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list(w, r, "repositories", s.store.repositories.list(nil))
}

func (s *Server) getRepository(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "repository_id")
	repo, ok := s.store.repositories.get(id)
	if !ok {
		s.handleError(w, notFound("repository", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"repository": repo})
}

func (s *Server) updateRepository(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "repository_id")
	repo, ok := s.store.repositories.get(id)
	if !ok {
		s.handleError(w, notFound("repository", id))
		return
	}
	repo.Description = body.Description
	repo.touch()
	s.store.repositories.put(id, repo)
	writeJSON(w, http.StatusOK, map[string]any{"repository": repo})
}

func (s *Server) deleteRepository(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "repository_id")
	repo, ok := s.store.repositories.get(id)
	if !ok {
		s.handleError(w, notFound("repository", id))
		return
	}
	if !forced(r) {
		repo.IsActive = false
		repo.touch()
		s.store.repositories.put(id, repo)
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, sc := range s.store.schemas.list(func(sc schema) bool { return sc.RepositoryID == id }) {
		s.removeSchema(sc.ID)
	}
	s.store.repositories.remove(id)
	writeJSON(w, http.StatusOK, nil)
}

// --- schemas ---

type schemaRequest struct {
	Description string    `json:"description"`
	Structure   structure `json:"structure"`
}

func (s *Server) createSchema(w http.ResponseWriter, r *http.Request) {
	var body schemaRequest
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	if err := validateStructure(body.Structure); err != nil {
		s.handleError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	repoID := chi.URLParam(r, "repository_id")
	if _, ok := s.store.repositories.get(repoID); !ok {
		s.handleError(w, notFound("repository", repoID))
		return
	}
	sc := schema{
		ID:           newID(),
		RepositoryID: repoID,
		Description:  body.Description,
		Structure:    body.Structure,
		meta:         newMeta(),
	}
	s.store.schemas.put(sc.ID, sc)
	writeJSON(w, http.StatusOK, map[string]any{"schema": sc})
}

func (s *Server) listSchemas(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	repoID := chi.URLParam(r, "repository_id")
	if _, ok := s.store.repositories.get(repoID); !ok {
		s.handleError(w, notFound("repository", repoID))
		return
	}
	list(w, r, "schemas", s.store.schemas.list(func(sc schema) bool { return sc.RepositoryID == repoID }))
}

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "schema_id")
	sc, ok := s.store.schemas.get(id)
	if !ok {
		s.handleError(w, notFound("schema", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schema": sc})
}

func (s *Server) updateSchema(w http.ResponseWriter, r *http.Request) {
	var body schemaRequest
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	if err := validateStructure(body.Structure); err != nil {
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
	sc.Description = body.Description
	sc.Structure = body.Structure
	sc.touch()
	s.store.schemas.put(id, sc)
	writeJSON(w, http.StatusOK, map[string]any{"schema": sc})
}

func (s *Server) deleteSchema(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "schema_id")
	sc, ok := s.store.schemas.get(id)
	if !ok {
		s.handleError(w, notFound("schema", id))
		return
	}
	if !forced(r) {
		sc.IsActive = false
		sc.touch()
		s.store.schemas.put(id, sc)
		writeJSON(w, http.StatusOK, nil)
		return
	}
	s.removeSchema(id)
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) removeSchema(id string) {
	for _, d := range s.store.documents.list(func(d document) bool { return d.SchemaID == id }) {
		s.store.documents.remove(d.ID)
	}
	s.store.schemas.remove(id)
}

// --- documents ---

type documentRequest struct {
	Content map[string]any `json:"content"`
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	var body documentRequest
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	schemaID := chi.URLParam(r, "schema_id")
	sc, ok := s.store.schemas.get(schemaID)
	if !ok {
		s.handleError(w, notFound("schema", schemaID))
		return
	}
	if err := validateContent(sc.Structure, body.Content); err != nil {
		s.handleError(w, err)
		return
	}
	doc := document{
		ID:           newID(),
		SchemaID:     schemaID,
		RepositoryID: sc.RepositoryID,
		Content:      body.Content,
		meta:         newMeta(),
	}
	s.store.documents.put(doc.ID, doc)
	writeJSON(w, http.StatusOK, map[string]any{"document": doc})
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schemaID := chi.URLParam(r, "schema_id")
	if _, ok := s.store.schemas.get(schemaID); !ok {
		s.handleError(w, notFound("schema", schemaID))
		return
	}
	docs := s.store.documents.list(func(d document) bool { return d.SchemaID == schemaID })
	if r.URL.Query().Get("full_document") != "true" {
		for i := range docs {
			docs[i].Content = nil
		}
	}
	list(w, r, "documents", docs)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "document_id")
	doc, ok := s.store.documents.get(id)
	if !ok {
		s.handleError(w, notFound("document", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": doc})
}

func (s *Server) updateDocument(w http.ResponseWriter, r *http.Request) {
	var body documentRequest
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "document_id")
	doc, ok := s.store.documents.get(id)
	if !ok {
		s.handleError(w, notFound("document", id))
		return
	}
	sc, _ := s.store.schemas.get(doc.SchemaID)
	if err := validateContent(sc.Structure, body.Content); err != nil {
		s.handleError(w, err)
		return
	}
	doc.Content = body.Content
	doc.touch()
	s.store.documents.put(id, doc)
	writeJSON(w, http.StatusOK, map[string]any{"document": doc})
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "document_id")
	doc, ok := s.store.documents.get(id)
	if !ok {
		s.handleError(w, notFound("document", id))
		return
	}
	if !forced(r) {
		doc.IsActive = false
		doc.touch()
		s.store.documents.put(id, doc)
		writeJSON(w, http.StatusOK, nil)
		return
	}
	s.store.documents.remove(id)
	for _, c := range s.store.collections.list(nil) {
		c.Documents = slices.DeleteFunc(slices.Clone(c.Documents), func(d string) bool { return d == id })
		s.store.collections.put(c.ID, c)
	}
	writeJSON(w, http.StatusOK, nil)
}

// --- user schemas ---

func (s *Server) createUserSchema(w http.ResponseWriter, r *http.Request) {
	var body schemaRequest
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	if err := validateStructure(body.Structure); err != nil {
		s.handleError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	us := userSchema{
		ID:          newID(),
		Description: body.Description,
		Structure:   body.Structure,
		Groups:      []string{},
		meta:        newMeta(),
	}
	s.store.userSchemas.put(us.ID, us)
	writeJSON(w, http.StatusOK, map[string]any{"user_schema": us})
}

func (s *Server) listUserSchemas(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list(w, r, "user_schemas", s.store.userSchemas.list(nil))
}

func (s *Server) getUserSchema(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "user_schema_id")
	us, ok := s.store.userSchemas.get(id)
	if !ok {
		s.handleError(w, notFound("user_schema", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_schema": us})
}

func (s *Server) updateUserSchema(w http.ResponseWriter, r *http.Request) {
	var body schemaRequest
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	if err := validateStructure(body.Structure); err != nil {
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
	us.Description = body.Description
	us.Structure = body.Structure
	us.touch()
	s.store.userSchemas.put(id, us)
	writeJSON(w, http.StatusOK, map[string]any{"user_schema": us})
}

func (s *Server) deleteUserSchema(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "user_schema_id")
	us, ok := s.store.userSchemas.get(id)
	if !ok {
		s.handleError(w, notFound("user_schema", id))
		return
	}
	if !forced(r) {
		us.IsActive = false
		us.touch()
		s.store.userSchemas.put(id, us)
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, u := range s.store.users.list(func(u user) bool { return u.SchemaID == id }) {
		s.store.users.remove(u.ID)
	}
	s.store.userSchemas.remove(id)
	writeJSON(w, http.StatusOK, nil)
}

// --- users ---

type userRequest struct {
	Username   string         `json:"username"`
	Password   string         `json:"password"`
	Attributes map[string]any `json:"attributes"`
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var body userRequest
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	schemaID := chi.URLParam(r, "user_schema_id")
	us, ok := s.store.userSchemas.get(schemaID)
	if !ok {
		s.handleError(w, notFound("user_schema", schemaID))
		return
	}
	if body.Username == "" || body.Password == "" {
		s.handleError(w, badRequest("username and password are required"))
		return
	}
	if s.usernameTaken(body.Username, "") {
		s.handleError(w, conflict("username %q is taken", body.Username))
		return
	}
	if err := validateContent(us.Structure, body.Attributes); err != nil {
		s.handleError(w, err)
		return
	}
	u := user{
		ID:         newID(),
		SchemaID:   schemaID,
		Username:   body.Username,
		Password:   body.Password,
		Attributes: body.Attributes,
		Groups:     []string{},
		meta:       newMeta(),
	}
	s.store.users.put(u.ID, u)
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (s *Server) usernameTaken(name, except string) bool {
	taken := s.store.users.list(func(u user) bool { return u.Username == name && u.ID != except })
	return len(taken) > 0
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schemaID := chi.URLParam(r, "user_schema_id")
	if _, ok := s.store.userSchemas.get(schemaID); !ok {
		s.handleError(w, notFound("user_schema", schemaID))
		return
	}
	list(w, r, "users", s.store.users.list(func(u user) bool { return u.SchemaID == schemaID }))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "user_id")
	u, ok := s.store.users.get(id)
	if !ok {
		s.handleError(w, notFound("user", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(r.Context())
	if !ok {
		s.handleError(w, badRequest("users/me needs a user access token"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.store.users.get(userID)
	if !ok {
		s.handleError(w, notFound("user", userID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var body userRequest
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "user_id")
	u, ok := s.store.users.get(id)
	if !ok {
		s.handleError(w, notFound("user", id))
		return
	}
	if body.Username != "" && s.usernameTaken(body.Username, id) {
		s.handleError(w, conflict("username %q is taken", body.Username))
		return
	}
	us, _ := s.store.userSchemas.get(u.SchemaID)
	if err := validateContent(us.Structure, body.Attributes); err != nil {
		s.handleError(w, err)
		return
	}
	if body.Username != "" {
		u.Username = body.Username
	}
	if body.Password != "" {
		u.Password = body.Password
	}
	u.Attributes = body.Attributes
	u.touch()
	s.store.users.put(id, u)
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "user_id")
	u, ok := s.store.users.get(id)
	if !ok {
		s.handleError(w, notFound("user", id))
		return
	}
	if !forced(r) {
		u.IsActive = false
		u.touch()
		s.store.users.put(id, u)
		writeJSON(w, http.StatusOK, nil)
		return
	}
	s.store.users.remove(id)
	writeJSON(w, http.StatusOK, nil)
}

// --- groups ---

type groupRequest struct {
	Name       string         `json:"group_name"`
	Attributes map[string]any `json:"attributes"`
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var body groupRequest
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	if body.Name == "" {
		s.handleError(w, badRequest("group_name is required"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := group{ID: newID(), Name: body.Name, Attributes: body.Attributes, meta: newMeta()}
	s.store.groups.put(g.ID, g)
	writeJSON(w, http.StatusOK, map[string]any{"group": g})
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list(w, r, "groups", s.store.groups.list(nil))
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "group_id")
	g, ok := s.store.groups.get(id)
	if !ok {
		s.handleError(w, notFound("group", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"group": g})
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	var body groupRequest
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "group_id")
	g, ok := s.store.groups.get(id)
	if !ok {
		s.handleError(w, notFound("group", id))
		return
	}
	g.Name = body.Name
	g.Attributes = body.Attributes
	g.touch()
	s.store.groups.put(id, g)
	writeJSON(w, http.StatusOK, map[string]any{"group": g})
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "group_id")
	g, ok := s.store.groups.get(id)
	if !ok {
		s.handleError(w, notFound("group", id))
		return
	}
	if !forced(r) {
		g.IsActive = false
		g.touch()
		s.store.groups.put(id, g)
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, u := range s.store.users.list(nil) {
		if slices.Contains(u.Groups, id) {
			u.Groups = slices.DeleteFunc(slices.Clone(u.Groups), func(g string) bool { return g == id })
			s.store.users.put(u.ID, u)
		}
	}
	s.store.groups.remove(id)
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) addGroupUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.groupMember(w, r)
	if !ok {
		return
	}
	gid := chi.URLParam(r, "group_id")
	if !slices.Contains(u.Groups, gid) {
		u.Groups = append(slices.Clone(u.Groups), gid)
		s.store.users.put(u.ID, u)
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) removeGroupUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.groupMember(w, r)
	if !ok {
		return
	}
	gid := chi.URLParam(r, "group_id")
	u.Groups = slices.DeleteFunc(slices.Clone(u.Groups), func(g string) bool { return g == gid })
	s.store.users.put(u.ID, u)
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) groupMember(w http.ResponseWriter, r *http.Request) (user, bool) {
	gid := chi.URLParam(r, "group_id")
	if _, ok := s.store.groups.get(gid); !ok {
		s.handleError(w, notFound("group", gid))
		return user{}, false
	}
	uid := chi.URLParam(r, "user_id")
	u, ok := s.store.users.get(uid)
	if !ok {
		s.handleError(w, notFound("user", uid))
		return user{}, false
	}
	return u, true
}

// --- collections ---

type collectionRequest struct {
	Name string `json:"name"`
}

func (s *Server) createCollection(w http.ResponseWriter, r *http.Request) {
	var body collectionRequest
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	if body.Name == "" {
		s.handleError(w, badRequest("name is required"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := collection{ID: newID(), Name: body.Name, meta: newMeta()}
	s.store.collections.put(c.ID, c)
	writeJSON(w, http.StatusOK, map[string]any{"collection": c})
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list(w, r, "collections", s.store.collections.list(nil))
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "collection_id")
	c, ok := s.store.collections.get(id)
	if !ok {
		s.handleError(w, notFound("collection", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collection": c})
}

func (s *Server) updateCollection(w http.ResponseWriter, r *http.Request) {
	var body collectionRequest
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "collection_id")
	c, ok := s.store.collections.get(id)
	if !ok {
		s.handleError(w, notFound("collection", id))
		return
	}
	c.Name = body.Name
	c.touch()
	s.store.collections.put(id, c)
	writeJSON(w, http.StatusOK, map[string]any{"collection": c})
}

func (s *Server) deleteCollection(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "collection_id")
	c, ok := s.store.collections.get(id)
	if !ok {
		s.handleError(w, notFound("collection", id))
		return
	}
	if !forced(r) {
		c.IsActive = false
		c.touch()
		s.store.collections.put(id, c)
		writeJSON(w, http.StatusOK, nil)
		return
	}
	s.store.collections.remove(id)
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) listCollectionDocuments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "collection_id")
	c, ok := s.store.collections.get(id)
	if !ok {
		s.handleError(w, notFound("collection", id))
		return
	}
	docs := make([]document, 0, len(c.Documents))
	for _, did := range c.Documents {
		if d, ok := s.store.documents.get(did); ok {
			docs = append(docs, d)
		}
	}
	list(w, r, "documents", docs)
}

func (s *Server) addCollectionDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, docID, ok := s.collectionDocument(w, r)
	if !ok {
		return
	}
	if !slices.Contains(c.Documents, docID) {
		c.Documents = append(slices.Clone(c.Documents), docID)
		s.store.collections.put(c.ID, c)
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) removeCollectionDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, docID, ok := s.collectionDocument(w, r)
	if !ok {
		return
	}
	c.Documents = slices.DeleteFunc(slices.Clone(c.Documents), func(d string) bool { return d == docID })
	s.store.collections.put(c.ID, c)
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) collectionDocument(w http.ResponseWriter, r *http.Request) (collection, string, bool) {
	id := chi.URLParam(r, "collection_id")
	c, ok := s.store.collections.get(id)
	if !ok {
		s.handleError(w, notFound("collection", id))
		return collection{}, "", false
	}
	docID := chi.URLParam(r, "document_id")
	if _, ok := s.store.documents.get(docID); !ok {
		s.handleError(w, notFound("document", docID))
		return collection{}, "", false
	}
	return c, docID, true
}

// --- permissions ---

var permissionLetters = []string{"C", "R", "U", "D", "L", "A", "S", "W"}

func (s *Server) permissions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Manage    []string `json:"manage"`
		Authorize []string `json:"authorize"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.handleError(w, err)
		return
	}
	g := Grant{
		Action:       chi.URLParam(r, "action"),
		ResourceType: chi.URLParam(r, "resource_type"),
		ResourceID:   chi.URLParam(r, "resource_id"),
		ChildType:    chi.URLParam(r, "resource_child_type"),
		SubjectType:  chi.URLParam(r, "subject_type"),
		SubjectID:    chi.URLParam(r, "subject_id"),
		Manage:       body.Manage,
		Authorize:    body.Authorize,
	}
	if g.Action != "grant" && g.Action != "revoke" {
		s.handleError(w, badRequest("unknown permission action %q", g.Action))
		return
	}
	for _, p := range slices.Concat(body.Manage, body.Authorize) {
		if !slices.Contains(permissionLetters, p) {
			s.handleError(w, badRequest("unknown permission %q", p))
			return
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.grants = append(s.store.grants, g)
	writeJSON(w, http.StatusOK, nil)
}

// Grants returns the permission changes received so far, oldest first.
func (s *Server) Grants() []Grant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.store.grants)
}

// --- consents ---

func (s *Server) createConsent(w http.ResponseWriter, r *http.Request) {
	var c domconsent.Consent
	if err := decodeBody(r, &c); err != nil {
		s.handleError(w, err)
		return
	}
	if err := c.Validate(); err != nil {
		s.handleError(w, badRequest("%v", err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = newID()
	c.InsertedDate = newMeta().InsertDate
	c.WithdrawnDate = domain.Time{}
	s.store.consents.put(c.ID, c)
	s.store.history[c.ID] = append(s.store.history[c.ID], c)
	writeJSON(w, http.StatusOK, map[string]any{"consent_id": c.ID})
}

func (s *Server) listConsents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := r.URL.Query().Get("user_id")
	list(w, r, "consents", s.store.consents.list(func(c domconsent.Consent) bool {
		return userID == "" || c.UserID == userID
	}))
}

func (s *Server) getConsent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "consent_id")
	c, ok := s.store.consents.get(id)
	if !ok {
		s.handleError(w, notFound("consent", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"consent": c})
}

func (s *Server) updateConsent(w http.ResponseWriter, r *http.Request) {
	var next domconsent.Consent
	if err := decodeBody(r, &next); err != nil {
		s.handleError(w, err)
		return
	}
	if err := next.Validate(); err != nil {
		s.handleError(w, badRequest("%v", err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "consent_id")
	c, ok := s.store.consents.get(id)
	if !ok {
		s.handleError(w, notFound("consent", id))
		return
	}
	if !c.Active() {
		s.handleError(w, conflict("consent %s is withdrawn", id))
		return
	}
	next.ID = id
	next.InsertedDate = newMeta().InsertDate
	next.WithdrawnDate = domain.Time{}
	s.store.consents.put(id, next)
	s.store.history[id] = append(s.store.history[id], next)
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) withdrawConsent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "consent_id")
	c, ok := s.store.consents.get(id)
	if !ok {
		s.handleError(w, notFound("consent", id))
		return
	}
	if c.Active() {
		c.WithdrawnDate = newMeta().InsertDate
		s.store.consents.put(id, c)
		s.store.history[id] = append(s.store.history[id], c)
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) consentHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "consent_id")
	if _, ok := s.store.consents.get(id); !ok {
		s.handleError(w, notFound("consent", id))
		return
	}
	list(w, r, "consents", s.store.history[id])
}
