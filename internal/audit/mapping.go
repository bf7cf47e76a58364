package audit

import "strings"

// ActionResource holds action and resource derived from a gRPC full method name.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseFullMethod returns action and resource for a gRPC full method
// (e.g. /kyc.onboarding.v1.OnboardingService/RequestEmailCode -> request_code on email).
// Methods that name a contact or the address use it as the resource; profile methods use
// "profile". Anything else falls back to the service name as resource and the lower-cased verb.
func ParseFullMethod(fullMethod string) ActionResource {
	slash := strings.LastIndex(fullMethod, "/")
	if slash < 0 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	method := fullMethod[slash+1:]
	beforeSlash := fullMethod[:slash]

	if ar, ok := onboardingMethod(method); ok {
		return ar
	}
	dot := strings.LastIndex(beforeSlash, ".")
	if dot < 0 {
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
	return ActionResource{Action: methodToAction(method), Resource: serviceToResource(beforeSlash[dot+1:])}
}

// onboardingMethod maps the verb+channel method names used by OnboardingService.
func onboardingMethod(method string) (ActionResource, bool) {
	verbs := []struct{ prefix, action string }{
		{"FindProfileBy", "find_profile"},
		{"Request", "request_code"},
		{"Verify", "verify_code"},
	}
	for _, v := range verbs {
		if rest, ok := strings.CutPrefix(method, v.prefix); ok {
			switch rest = strings.TrimSuffix(rest, "Code"); rest {
			case "Email", "Phone", "Address":
				return ActionResource{Action: v.action, Resource: strings.ToLower(rest)}, true
			}
		}
	}
	switch method {
	case "SendWelcomeNotification":
		return ActionResource{Action: "send_welcome", Resource: "profile"}, true
	case "CreateProfile":
		return ActionResource{Action: "create", Resource: "profile"}, true
	case "GetDevOTP":
		return ActionResource{Action: "get", Resource: "dev_otp"}, true
	}
	return ActionResource{}, false
}

func serviceToResource(serviceName string) string {
	s := strings.TrimSuffix(serviceName, "Service")
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s[0:1]) + s[1:]
}

func methodToAction(method string) string {
	for _, p := range []struct{ prefix, action string }{
		{"Get", "get"}, {"List", "list"}, {"Create", "create"}, {"Update", "update"},
		{"Delete", "delete"}, {"Check", "check"}, {"Watch", "watch"},
	} {
		if strings.HasPrefix(method, p.prefix) && method != p.prefix {
			return p.action
		}
	}
	return strings.ToLower(method)
}
