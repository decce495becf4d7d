package namespace

import (
	"fmt"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/bryanpaget/namespace-provisioner/internal/provisioner"
)

var (
	placeholderPattern = regexp.MustCompile(`<([A-Za-z0-9_.-]+)>`)
	invalidNameChars   = regexp.MustCompile(`[^a-z0-9-]+`)
	repeatedDashes     = regexp.MustCompile(`-{2,}`)
)

// evaluateTemplate substitutes <username>, <userid> and attribute placeholders
// and normalizes the result into a DNS-1123 label.
func evaluateTemplate(template string, rc provisioner.ResolutionContext) (string, error) {
	var missing []string
	expanded := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		value := placeholderValue(key, rc)
		if value == "" {
			missing = append(missing, key)
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("template %q needs values for %s", template, strings.Join(missing, ", "))
	}

	name := normalizeName(expanded)
	if name == "" {
		return "", fmt.Errorf("template %q evaluated to an empty name", template)
	}
	if errs := validation.IsDNS1123Label(name); len(errs) > 0 {
		return "", fmt.Errorf("invalid namespace name %q: %s", name, strings.Join(errs, "; "))
	}
	return name, nil
}

// placeholderValue falls back to the user id for <username> so a context
// carrying only the user id still resolves under the default template.
func placeholderValue(key string, rc provisioner.ResolutionContext) string {
	switch strings.ToLower(key) {
	case "username":
		if rc.UserName == "" {
			return rc.UserID
		}
		return rc.UserName
	case "userid":
		return rc.UserID
	default:
		return rc.Attributes[key]
	}
}

func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = invalidNameChars.ReplaceAllString(name, "-")
	name = repeatedDashes.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if len(name) > validation.DNS1123LabelMaxLength {
		name = strings.TrimRight(name[:validation.DNS1123LabelMaxLength], "-")
	}
	return name
}
