package chino

import (
	"context"
	"fmt"
)

// User schema, user and group endpoints.
const (
	userSchemasEndpoint     = "/user_schemas"
	userSchemaEndpoint      = "/user_schemas/{user_schema_id}"
	userSchemaUsersEndpoint = "/user_schemas/{user_schema_id}/users"
	userEndpoint            = "/users/{user_id}"
	userMeEndpoint          = "/users/me"
	groupsEndpoint          = "/groups"
	groupEndpoint           = "/groups/{group_id}"
	groupUserEndpoint       = "/groups/{group_id}/users/{user_id}"
)

// UserSchemaService manages user schemas.
type UserSchemaService struct{ c *Client }

// Create creates a user schema.
func (s *UserSchemaService) Create(ctx context.Context, description string, opts ...SchemaOption) (UserSchema, error) {
	body, err := newSchemaBody(description, opts)
	if err != nil {
		return UserSchema{}, fmt.Errorf("user_schemas.create: %w", err)
	}
	return doOne[UserSchema](ctx, s.c, "user_schemas.create", "user_schema",
		post(body, userSchemasEndpoint))
}

// Get returns a user schema.
func (s *UserSchemaService) Get(ctx context.Context, id string) (UserSchema, error) {
	return doOne[UserSchema](ctx, s.c, "user_schemas.get", "user_schema",
		get(userSchemaEndpoint, id))
}

// List returns one page of user schemas.
func (s *UserSchemaService) List(ctx context.Context, opts ListOptions) (Page[UserSchema], error) {
	return doList[UserSchema](ctx, s.c, "user_schemas.list", "user_schemas",
		get(userSchemasEndpoint), opts)
}

// Update replaces the description and structure of a user schema.
func (s *UserSchemaService) Update(
	ctx context.Context, id, description string, opts ...SchemaOption,
) (UserSchema, error) {
	body, err := newSchemaBody(description, opts)
	if err != nil {
		return UserSchema{}, fmt.Errorf("user_schemas.update: %w", err)
	}
	return doOne[UserSchema](ctx, s.c, "user_schemas.update", "user_schema",
		put(body, userSchemaEndpoint, id))
}

// Delete removes a user schema. With force its users are deleted too.
func (s *UserSchemaService) Delete(ctx context.Context, id string, force bool) error {
	call := del(userSchemaEndpoint, id)
	if force {
		call = forced(call)
	}
	return s.c.call(ctx, "user_schemas.delete", call, nil)
}

// UserService manages application users.
type UserService struct{ c *Client }

type userBody struct {
	Username   string         `json:"username"`
	Password   string         `json:"password,omitempty"`
	Attributes map[string]any `json:"attributes"`
}

// Create creates a user in a user schema.
func (s *UserService) Create(ctx context.Context, userSchemaID string, u User) (User, error) {
	if err := u.Validate(); err != nil {
		return User{}, fmt.Errorf("users.create: %w: %w", ErrBadRequest, err)
	}
	body := userBody{Username: u.Username, Password: u.Password, Attributes: u.Attributes}
	return doOne[User](ctx, s.c, "users.create", "user",
		post(body, userSchemaUsersEndpoint, userSchemaID))
}

// Get returns a user.
func (s *UserService) Get(ctx context.Context, id string) (User, error) {
	return doOne[User](ctx, s.c, "users.get", "user", get(userEndpoint, id))
}

// Me returns the user the client's bearer token belongs to.
func (s *UserService) Me(ctx context.Context) (User, error) {
	return doOne[User](ctx, s.c, "users.me", "user", get(userMeEndpoint))
}

// List returns one page of the users of a user schema.
func (s *UserService) List(ctx context.Context, userSchemaID string, opts ListOptions) (Page[User], error) {
	return doList[User](ctx, s.c, "users.list", "users",
		get(userSchemaUsersEndpoint, userSchemaID), opts)
}

// Update replaces the username, attributes and, when set, the password.
func (s *UserService) Update(ctx context.Context, id string, u User) (User, error) {
	body := userBody{Username: u.Username, Password: u.Password, Attributes: u.Attributes}
	return doOne[User](ctx, s.c, "users.update", "user", put(body, userEndpoint, id))
}

// Delete removes a user. Without force it is only deactivated.
func (s *UserService) Delete(ctx context.Context, id string, force bool) error {
	call := del(userEndpoint, id)
	if force {
		call = forced(call)
	}
	return s.c.call(ctx, "users.delete", call, nil)
}

// GroupService manages user groups.
type GroupService struct{ c *Client }

type groupBody struct {
	Name       string         `json:"group_name"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Create creates a group.
func (s *GroupService) Create(ctx context.Context, name string, attributes map[string]any) (Group, error) {
	return doOne[Group](ctx, s.c, "groups.create", "group",
		post(groupBody{Name: name, Attributes: attributes}, groupsEndpoint))
}

// Get returns a group.
func (s *GroupService) Get(ctx context.Context, id string) (Group, error) {
	return doOne[Group](ctx, s.c, "groups.get", "group", get(groupEndpoint, id))
}

// List returns one page of groups.
func (s *GroupService) List(ctx context.Context, opts ListOptions) (Page[Group], error) {
	return doList[Group](ctx, s.c, "groups.list", "groups", get(groupsEndpoint), opts)
}

// Update replaces the name and attributes of a group.
func (s *GroupService) Update(ctx context.Context, id, name string, attributes map[string]any) (Group, error) {
	return doOne[Group](ctx, s.c, "groups.update", "group",
		put(groupBody{Name: name, Attributes: attributes}, groupEndpoint, id))
}

// Delete removes a group.
func (s *GroupService) Delete(ctx context.Context, id string, force bool) error {
	call := del(groupEndpoint, id)
	if force {
		call = forced(call)
	}
	return s.c.call(ctx, "groups.delete", call, nil)
}

// AddUser adds a user to a group.
func (s *GroupService) AddUser(ctx context.Context, groupID, userID string) error {
	return s.c.call(ctx, "groups.add_user", post(nil, groupUserEndpoint, groupID, userID), nil)
}

// RemoveUser removes a user from a group.
func (s *GroupService) RemoveUser(ctx context.Context, groupID, userID string) error {
	return s.c.call(ctx, "groups.remove_user", del(groupUserEndpoint, groupID, userID), nil)
}
