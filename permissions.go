package chino

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Permission endpoints.
const (
	permsOnTypeEndpoint     = "/perms/{action}/{resource_type}/{subject_type}/{subject_id}"
	permsOnResourceEndpoint = "/perms/{action}/{resource_type}/{resource_id}/{subject_type}/{subject_id}"
	permsOnChildrenEndpoint = "/perms/{action}/{resource_type}/{resource_id}/{resource_child_type}/{subject_type}/{subject_id}"
)

// ResourceType names a kind of resource permissions apply to.
type ResourceType string

// Resource types.
const (
	ResourceRepositories ResourceType = "repositories"
	ResourceSchemas      ResourceType = "schemas"
	ResourceDocuments    ResourceType = "documents"
	ResourceUserSchemas  ResourceType = "user_schemas"
	ResourceUsers        ResourceType = "users"
	ResourceGroups       ResourceType = "groups"
	ResourceCollections  ResourceType = "collections"
)

// SubjectType names who receives a permission.
type SubjectType string

// Subject types.
const (
	SubjectUsers  SubjectType = "users"
	SubjectGroups SubjectType = "groups"
)

// Permission is a single access right.
type Permission string

// Permissions.
const (
	PermCreate    Permission = "C"
	PermRead      Permission = "R"
	PermUpdate    Permission = "U"
	PermDelete    Permission = "D"
	PermList      Permission = "L"
	PermAdmin     Permission = "A"
	PermSearch    Permission = "S"
	PermBlobWrite Permission = "W"
)

// PermissionSet lists the rights a subject may exercise (Manage) and the
// rights it may grant to others (Authorize).
type PermissionSet struct {
	Manage    []Permission `json:"manage,omitempty"`
	Authorize []Permission `json:"authorize,omitempty"`
}

// Validate checks the permission letters.
func (p PermissionSet) Validate() error {
	letters := []any{PermCreate, PermRead, PermUpdate, PermDelete, PermList, PermAdmin, PermSearch, PermBlobWrite}
	return validation.ValidateStruct(&p,
		validation.Field(&p.Manage, validation.Each(validation.In(letters...))),
		validation.Field(&p.Authorize, validation.Each(validation.In(letters...))),
	)
}

// PermissionTarget selects what a permission applies to and who receives it.
// Without ResourceID the permission covers every resource of the type; with
// ChildType it covers the children of the resource.
type PermissionTarget struct {
	ResourceType ResourceType
	ResourceID   string
	ChildType    ResourceType
	SubjectType  SubjectType
	SubjectID    string
}

// PermissionService grants and revokes access rights.
type PermissionService struct{ c *Client }

// Grant gives the subject the rights in perms on the target.
func (s *PermissionService) Grant(ctx context.Context, target PermissionTarget, perms PermissionSet) error {
	return s.apply(ctx, "grant", target, perms)
}

// Revoke removes the rights in perms from the subject on the target.
func (s *PermissionService) Revoke(ctx context.Context, target PermissionTarget, perms PermissionSet) error {
	return s.apply(ctx, "revoke", target, perms)
}

func (s *PermissionService) apply(
	ctx context.Context, action string, t PermissionTarget, perms PermissionSet,
) error {
	op := "permissions." + action
	if err := perms.Validate(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err)
	}
	call := post(perms, permsOnTypeEndpoint,
		action, string(t.ResourceType), string(t.SubjectType), t.SubjectID)
	switch {
	case t.ChildType != "":
		call = post(perms, permsOnChildrenEndpoint, action, string(t.ResourceType), t.ResourceID,
			string(t.ChildType), string(t.SubjectType), t.SubjectID)
	case t.ResourceID != "":
		call = post(perms, permsOnResourceEndpoint, action, string(t.ResourceType), t.ResourceID,
			string(t.SubjectType), t.SubjectID)
	}
	return s.c.call(ctx, op, call, nil)
}
