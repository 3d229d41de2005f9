package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// RBACModel matches a role subject against path patterns and method regexes
const RBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// DefaultPolicies are seeded on startup; AddPolicy is a no-op for existing rules
var DefaultPolicies = [][]string{
	{"role_user", "/auth/me", "GET"},
	{"role_admin", "/auth/me", "GET"},
}

type CasbinService struct{ E *casbin.Enforcer }

// NewCasbinService builds an enforcer persisted through the GORM adapter
func NewCasbinService(db *gorm.DB) (*CasbinService, error) {
	m, err := model.NewModelFromString(RBACModel)
	if err != nil {
		return nil, err
	}
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize casbin adapter: %w", err)
	}
	E, err := casbin.NewEnforcer(m, adp)
	if err != nil {
		return nil, err
	}
	if err := E.LoadPolicy(); err != nil {
		return nil, err
	}
	return &CasbinService{E}, nil
}

// NewMemoryCasbinService builds an enforcer with no persistence
func NewMemoryCasbinService() (*CasbinService, error) {
	m, err := model.NewModelFromString(RBACModel)
	if err != nil {
		return nil, err
	}
	E, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	return &CasbinService{E}, nil
}

// SeedDefaults installs DefaultPolicies
func (s *CasbinService) SeedDefaults() error {
	for _, p := range DefaultPolicies {
		if _, err := s.E.AddPolicy(p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("failed to seed policy %v: %w", p, err)
		}
	}
	return nil
}

// AddPolicy implements domain.PolicyService
func (s *CasbinService) AddPolicy(role, resource, action string) error {
	_, err := s.E.AddPolicy(RoleSubject(role), resource, action)
	return err
}

// CheckPermission implements domain.PolicyService
func (s *CasbinService) CheckPermission(role, resource, action string) (bool, error) {
	return s.E.Enforce(RoleSubject(role), resource, action)
}

// RoleSubject is the casbin subject for an account role
func RoleSubject(role string) string {
	return "role_" + role
}
