package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

func TestExtractGoFunctionsAndCalls(t *testing.T) {
	src := []byte(`package a

import "fmt"

func g() {
	fmt.Println("hi")
}

func f() {
	g()
}
`)
	res := Extract(src, store.LangGo)
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Symbols, 2)

	var names []string
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	require.ElementsMatch(t, []string{"f", "g"}, names)

	var sawCallToG bool
	for _, c := range res.CallSites {
		if c.Callee == "g" && c.CallerName == "f" {
			sawCallToG = true
		}
	}
	require.True(t, sawCallToG)
	require.Len(t, res.Imports, 1)
	require.Equal(t, "fmt", res.Imports[0].Target)
}

func TestExtractGoMethodOnStruct(t *testing.T) {
	src := []byte(`package a

type Dog struct{}

func (d *Dog) Bark() string {
	return "woof"
}
`)
	res := Extract(src, store.LangGo)
	require.Len(t, res.Symbols, 2)
	var method *Symbol
	for i := range res.Symbols {
		if res.Symbols[i].Kind == store.KindMethod {
			method = &res.Symbols[i]
		}
	}
	require.NotNil(t, method)
	require.Equal(t, "Bark", method.Name)
	require.Equal(t, "Dog.Bark", method.QualifiedName)
}

func TestExtractPythonFunctionDocstringAndParams(t *testing.T) {
	src := []byte(`
def authenticate(user, password=None):
    """verifies credentials"""
    return verify_password(password)
`)
	res := Extract(src, store.LangPython)
	require.Len(t, res.Symbols, 1)
	sym := res.Symbols[0]
	require.Equal(t, "authenticate", sym.Name)
	require.Equal(t, "verifies credentials", sym.Docstring)
	require.Len(t, sym.Parameters, 2)
}

func TestExtractUnsupportedLanguageIsNonFatal(t *testing.T) {
	res := Extract([]byte("whatever"), store.Language("cobol"))
	require.Empty(t, res.Symbols)
	require.Len(t, res.Diagnostics, 1)
	require.Equal(t, SeverityError, res.Diagnostics[0].Severity)
}

func TestExtractTypeScriptInterfaceAndClass(t *testing.T) {
	src := []byte(`
interface Greeter {
  greet(): string;
}

class EnglishGreeter implements Greeter {
  greet(): string {
    return "hello";
  }
}
`)
	res := Extract(src, store.LangTypeScript)
	require.Empty(t, res.Diagnostics)

	var kinds []store.SymbolKind
	for _, s := range res.Symbols {
		kinds = append(kinds, s.Kind)
	}
	require.Contains(t, kinds, store.KindInterface)
	require.Contains(t, kinds, store.KindClass)
}

func TestExtractPythonImportAliasLinksCallSite(t *testing.T) {
	src := []byte(`
import util as u

def main():
    return u.helper()
`)
	res := Extract(src, store.LangPython)
	require.Len(t, res.Imports, 1)
	require.Equal(t, "util", res.Imports[0].Target)
	require.Equal(t, "u", res.Imports[0].Alias)

	var call *CallSite
	for i := range res.CallSites {
		if res.CallSites[i].Callee == "helper" {
			call = &res.CallSites[i]
		}
	}
	require.NotNil(t, call)
	require.Equal(t, "u", call.ReceiverHint)
	require.Equal(t, "util", call.ImportAlias)
}

func TestExtractGoImportAliasLinksCallSite(t *testing.T) {
	src := []byte(`package a

import u "some/other/util"

func f() {
	u.Helper()
}
`)
	res := Extract(src, store.LangGo)
	require.Len(t, res.Imports, 1)
	require.Equal(t, "some/other/util", res.Imports[0].Target)
	require.Equal(t, "u", res.Imports[0].Alias)

	var call *CallSite
	for i := range res.CallSites {
		if res.CallSites[i].Callee == "Helper" {
			call = &res.CallSites[i]
		}
	}
	require.NotNil(t, call)
	require.Equal(t, "some/other/util", call.ImportAlias)
}

func TestExtractJavaMethodVisibility(t *testing.T) {
	src := []byte(`
public class Animal {
    private void breathe() {
        oxygenate();
    }
}
`)
	res := Extract(src, store.LangJava)
	require.Len(t, res.Symbols, 2)
	var method *Symbol
	for i := range res.Symbols {
		if res.Symbols[i].Kind == store.KindMethod {
			method = &res.Symbols[i]
		}
	}
	require.NotNil(t, method)
	require.Equal(t, store.VisPrivate, method.Visibility)
}
