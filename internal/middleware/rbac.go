package middleware

import (
	"fmt"
	"sort"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-lingua-api/internal/utils"
)

// RequireRole lets the request through only when the caller's role, after alias folding,
// is one of roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if canonical := canonicalRole(role); canonical != "" {
			allowed[canonical] = struct{}{}
		}
	}
	names := make([]string, 0, len(allowed))
	for role := range allowed {
		names = append(names, role)
	}
	sort.Strings(names)

	return func(c *fiber.Ctx) error {
		role := normalizeRoleValue(c.Locals("user_role"))
		if _, ok := allowed[role]; !ok {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", fiber.Map{"allowed_roles": names})
		}
		return c.Next()
	}
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return canonicalRole(v)
	case fmt.Stringer:
		return canonicalRole(v.String())
	default:
		return canonicalRole(fmt.Sprintf("%v", value))
	}
}
