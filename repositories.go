package chino

import (
	"context"
	"fmt"
)

// Repository and schema endpoints.
const (
	repositoriesEndpoint      = "/repositories"
	repositoryEndpoint        = "/repositories/{repository_id}"
	repositorySchemasEndpoint = "/repositories/{repository_id}/schemas"
	schemaEndpoint            = "/schemas/{schema_id}"
)

// RepositoryService manages repositories.
type RepositoryService struct{ c *Client }

type repositoryBody struct {
	Description string `json:"description"`
}

// Create creates a repository.
func (s *RepositoryService) Create(ctx context.Context, description string) (Repository, error) {
	return doOne[Repository](ctx, s.c, "repositories.create", "repository",
		post(repositoryBody{Description: description}, repositoriesEndpoint))
}

// Get returns a repository.
func (s *RepositoryService) Get(ctx context.Context, id string) (Repository, error) {
	return doOne[Repository](ctx, s.c, "repositories.get", "repository",
		get(repositoryEndpoint, id))
}

// List returns one page of repositories.
func (s *RepositoryService) List(ctx context.Context, opts ListOptions) (Page[Repository], error) {
	return doList[Repository](ctx, s.c, "repositories.list", "repositories",
		get(repositoriesEndpoint), opts)
}

// Update changes the repository description.
func (s *RepositoryService) Update(ctx context.Context, id, description string) (Repository, error) {
	return doOne[Repository](ctx, s.c, "repositories.update", "repository",
		put(repositoryBody{Description: description}, repositoryEndpoint, id))
}

// Delete removes a repository. Without force it is only deactivated.
func (s *RepositoryService) Delete(ctx context.Context, id string, force bool) error {
	call := del(repositoryEndpoint, id)
	if force {
		call = forced(call)
	}
	return s.c.call(ctx, "repositories.delete", call, nil)
}

// SchemaService manages document schemas.
type SchemaService struct{ c *Client }

type schemaBody struct {
	Description string    `json:"description"`
	Structure   Structure `json:"structure"`
}

// Create creates a schema in a repository. Fields come from opts; see
// WithField, WithIndexedField and WithFieldsOf.
func (s *SchemaService) Create(
	ctx context.Context, repositoryID, description string, opts ...SchemaOption,
) (Schema, error) {
	body, err := newSchemaBody(description, opts)
	if err != nil {
		return Schema{}, fmt.Errorf("schemas.create: %w", err)
	}
	return doOne[Schema](ctx, s.c, "schemas.create", "schema",
		post(body, repositorySchemasEndpoint, repositoryID))
}

// Get returns a schema.
func (s *SchemaService) Get(ctx context.Context, id string) (Schema, error) {
	return doOne[Schema](ctx, s.c, "schemas.get", "schema", get(schemaEndpoint, id))
}

// List returns one page of the schemas of a repository.
func (s *SchemaService) List(ctx context.Context, repositoryID string, opts ListOptions) (Page[Schema], error) {
	return doList[Schema](ctx, s.c, "schemas.list", "schemas",
		get(repositorySchemasEndpoint, repositoryID), opts)
}

// Update replaces the description and structure of a schema.
func (s *SchemaService) Update(
	ctx context.Context, id, description string, opts ...SchemaOption,
) (Schema, error) {
	body, err := newSchemaBody(description, opts)
	if err != nil {
		return Schema{}, fmt.Errorf("schemas.update: %w", err)
	}
	return doOne[Schema](ctx, s.c, "schemas.update", "schema", put(body, schemaEndpoint, id))
}

// Delete removes a schema. With force its documents are deleted too.
func (s *SchemaService) Delete(ctx context.Context, id string, force bool) error {
	call := del(schemaEndpoint, id)
	if force {
		call = forced(call)
	}
	return s.c.call(ctx, "schemas.delete", call, nil)
}

func newSchemaBody(description string, opts []SchemaOption) (schemaBody, error) {
	cfg := applySchemaOptions(opts)
	if cfg.err != nil {
		return schemaBody{}, cfg.err
	}
	st := Structure{Fields: cfg.fields}
	if err := st.Validate(); err != nil {
		return schemaBody{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return schemaBody{Description: description, Structure: st}, nil
}
