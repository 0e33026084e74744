package tfparse

import "strings"

// rule assigns value when any of its markers occurs in lowercased text.
type rule struct {
	value   string
	markers []string
}

func firstMatch(lower string, rules []rule) string {
	for _, r := range rules {
		for _, m := range r.markers {
			if strings.Contains(lower, m) {
				return r.value
			}
		}
	}
	return ""
}

const (
	OperationGeneral = "general"
	ComponentUnknown = "unknown"
	MessageTypeRaw   = "RAW"
)

var operationRules = []rule{
	{"plan", []string{"plan", "terraform plan", "plan operation", "planning", "refresh plan", "plan:", "-plan-",
		"execution plan", "proposed changes", "speculative plan", "no actions need to be taken", "planned change", "refresh:"}},
	{"apply", []string{"apply", "terraform apply", "apply operation", "applying", "apply:", "-apply-", "provisioning",
		"deploying", "creating", "modifying", "destroying", "executing actions", "applying configuration"}},
	{"validate", []string{"validate", "validation", "validating", "validate operation", "syntax valid",
		"configuration is valid", "checking configuration"}},
	{"init", []string{"init", "terraform init", "initializing", "initialization", "init:", "-init-", "initializing backend",
		"installing plugins", "downloading modules", "provider installation", "module installation",
		"terraform.lock.hcl", "required_providers"}},
	{"destroy", []string{"destroy", "terraform destroy", "destroying", "destroy:", "deprovisioning", "cleaning up",
		"removing resources", "destroy mode", "plan to destroy", "destroy plan", "apply -destroy"}},
	{"refresh", []string{"refresh", "refreshing", "refresh:", "refresh-only", "updating state", "synchronizing state",
		"reconcile state"}},
}

// moduleOperationRules apply to the @module field when the message is inconclusive.
var moduleOperationRules = []rule{
	{"plan", []string{"plan"}},
	{"apply", []string{"apply"}},
	{"init", []string{"init"}},
}

var rpcOperationRules = []rule{
	{"plan", []string{"plan"}},
	{"apply", []string{"apply"}},
}

var rawOperationRules = []rule{
	{"plan", []string{"plan", "planning"}},
	{"apply", []string{"apply", "applying"}},
	{"validate", []string{"validate", "validation"}},
	{"init", []string{"init", "initializing"}},
	{"destroy", []string{"destroy", "destroying"}},
}

var componentRules = []rule{
	{"core", []string{"terraform", "cli", "command", "args", "version", "root", "working directory", "config"}},
	{"backend", []string{"backend", "statemgr", "state", "local:", "remote:", "loading state", "saving state"}},
	{"provider", []string{"provider", "registry", "plugin", "tf-provider", "initializing provider"}},
	{"provisioner", []string{"provisioner", "local-exec", "remote-exec"}},
	{"http", []string{"http", "https", "request", "response", "get", "post", "status code", "header"}},
	{"grpc", []string{"grpc", "rpc", "protocol", "client", "server"}},
}

var rawComponentRules = []rule{
	{"core", []string{"terraform", "cli", "command"}},
	{"backend", []string{"backend", "state"}},
	{"provider", []string{"provider", "registry"}},
	{"http", []string{"http", "request"}},
	{"grpc", []string{"grpc", "rpc"}},
}

var messageTypeRules = []rule{
	{"error", []string{"error", "failed"}},
	{"warning", []string{"warning", "warn"}},
	{"debug", []string{"debug"}},
	{"trace", []string{"trace"}},
}

var levelRules = []rule{
	{LevelError, []string{"error", "failed", "failure", "exception", "panic", "fatal"}},
	{LevelWarn, []string{"warn", "warning", "deprecated", "deprecation"}},
	{LevelInfo, []string{"info", "starting", "completed", "success", "created", "updated"}},
	{LevelDebug, []string{"debug", "checking", "scanning", "reading", "writing"}},
	{LevelTrace, []string{"trace", "waiting", "calling", "entering", "exiting"}},
}

var rawLevelRules = []rule{
	{LevelError, []string{"error", "failed", "failure", "exception"}},
	{LevelWarn, []string{"warn", "warning"}},
	{LevelInfo, []string{"info", "starting", "completed"}},
	{LevelDebug, []string{"debug"}},
	{LevelTrace, []string{"trace"}},
}
