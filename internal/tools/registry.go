// SPDX-License-Identifier: AGPL-3.0-only
package tools

// Tool names
const (
	ReadPDF       = "read_pdf"
	QueryDatabase = "query_database"
	GitHubInfo    = "github_repository_info"
	SystemHealth  = "system_health"
)

// Credential placeholders the model is allowed to pass instead of real
// GitHub credentials.
const (
	PlaceholderUsername = "<GITHUB_USERNAME>"
	PlaceholderToken    = "<GITHUB_PAT>"
)

// Closed value sets shared by the schemas and argument validation.
var (
	PDFFiles = []string{"백엔드_가이드.pdf", "프론트_가이드.pdf", "디비_가이드.pdf"}
	Tables   = []string{"users", "guides"}
)

// Definition describes one invocable tool
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// FunctionTool is the function-calling presentation of a Definition
type FunctionTool struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

// FunctionSchema is the function body of a FunctionTool
type FunctionSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ReadPDFParams are the arguments of read_pdf
type ReadPDFParams struct {
	Filename string `json:"filename" description:"PDF file to read" enum:"백엔드_가이드.pdf,프론트_가이드.pdf,디비_가이드.pdf"`
}

// QueryDatabaseParams are the arguments of query_database
type QueryDatabaseParams struct {
	Table   string                 `json:"table" description:"table to query" enum:"users,guides"`
	Filters map[string]interface{} `json:"filters,omitempty" description:"equality filters, e.g. {\"role\": \"backend\"}"`
}

// GitHubParams are the arguments of github_repository_info
type GitHubParams struct {
	Repository string `json:"repository" description:"GitHub repository as owner/name, e.g. hli-yohan-lee/dev-guide"`
	Username   string `json:"username" description:"GitHub username; pass <GITHUB_USERNAME> to use the configured account"`
	Password   string `json:"password" description:"GitHub personal access token; pass <GITHUB_PAT> to use the configured token"`
	FilePath   string `json:"file_path,omitempty" description:"file path inside the repository, e.g. API_가이드.pdf; omit to list the root"`
}

// HealthParams are the (empty) arguments of system_health
type HealthParams struct{}

var definitions = []Definition{
	{
		Name:        ReadPDF,
		Description: "Reads a PDF guide and extracts its text content",
		InputSchema: buildSchema(ReadPDFParams{}),
	},
	{
		Name:        QueryDatabase,
		Description: "Queries rows from a database table with optional equality filters",
		InputSchema: buildSchema(QueryDatabaseParams{}),
	},
	{
		Name:        GitHubInfo,
		Description: "Fetches a GitHub repository listing or a single file's content",
		InputSchema: buildSchema(GitHubParams{}),
	},
	{
		Name:        SystemHealth,
		Description: "Checks the health of the tool backend",
		InputSchema: closedSchema(buildSchema(HealthParams{})),
	},
}

// List returns the tool definitions in declaration order. The returned
// slice is a copy; schemas are shared and must not be mutated.
func List() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition for name
func Lookup(name string) (Definition, bool) {
	for _, d := range definitions {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Names returns the tool names in declaration order
func Names() []string {
	names := make([]string, len(definitions))
	for i, d := range definitions {
		names[i] = d.Name
	}
	return names
}

// AsFunction wraps d in the function-calling shape
func (d Definition) AsFunction() FunctionTool {
	return FunctionTool{
		Type: "function",
		Function: FunctionSchema{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.InputSchema,
		},
	}
}

// FunctionTools converts definitions to the function-calling shape
func FunctionTools(defs []Definition) []FunctionTool {
	out := make([]FunctionTool, len(defs))
	for i, d := range defs {
		out[i] = d.AsFunction()
	}
	return out
}

// Definitions converts function-calling tools back to definitions
func Definitions(fns []FunctionTool) []Definition {
	out := make([]Definition, len(fns))
	for i, f := range fns {
		out[i] = Definition{
			Name:        f.Function.Name,
			Description: f.Function.Description,
			InputSchema: f.Function.Parameters,
		}
	}
	return out
}

// Contains reports whether value is in set
func Contains(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

func closedSchema(schema map[string]interface{}) map[string]interface{} {
	schema["additionalProperties"] = false
	return schema
}
