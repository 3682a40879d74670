package symbols

import (
	"fmt"
	"strings"
)

// MethodType is a parsed JVM method descriptor
// Example: "(ILjava/lang/String;)V" -> Params ["I", "Ljava/lang/String;"], Return "V"
type MethodType struct {
	Params []string
	Return string
}

// ParamsKey returns the parameter part of the descriptor, e.g. "(ILjava/lang/String;)".
// Two methods with the same name and ParamsKey are the same method to the
// compiler regardless of return type.
func (m MethodType) ParamsKey() string {
	return "(" + strings.Join(m.Params, "") + ")"
}

// ParseMethodDescriptor splits a method descriptor into parameter and return
// type descriptors
func ParseMethodDescriptor(desc string) (MethodType, error) {
	if !strings.HasPrefix(desc, "(") {
		return MethodType{}, fmt.Errorf("invalid method descriptor %q: missing '('", desc)
	}
	end := strings.IndexByte(desc, ')')
	if end < 0 {
		return MethodType{}, fmt.Errorf("invalid method descriptor %q: missing ')'", desc)
	}

	var params []string
	rest := desc[1:end]
	for rest != "" {
		n, err := fieldTypeLen(rest)
		if err != nil {
			return MethodType{}, fmt.Errorf("invalid method descriptor %q: %w", desc, err)
		}
		params = append(params, rest[:n])
		rest = rest[n:]
	}

	ret := desc[end+1:]
	if ret != "V" {
		if err := ParseFieldDescriptor(ret); err != nil {
			return MethodType{}, fmt.Errorf("invalid method descriptor %q: %w", desc, err)
		}
	}
	return MethodType{Params: params, Return: ret}, nil
}

// ParseFieldDescriptor checks that desc is exactly one field type
func ParseFieldDescriptor(desc string) error {
	n, err := fieldTypeLen(desc)
	if err != nil {
		return err
	}
	if n != len(desc) {
		return fmt.Errorf("trailing data in field descriptor %q", desc)
	}
	return nil
}

// fieldTypeLen returns the length of the field type at the start of s
func fieldTypeLen(s string) (int, error) {
	i := 0
	for i < len(s) && s[i] == '[' {
		i++
	}
	if i == len(s) {
		return 0, fmt.Errorf("truncated type in %q", s)
	}
	switch s[i] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return i + 1, nil
	case 'L':
		semi := strings.IndexByte(s[i:], ';')
		if semi < 0 {
			return 0, fmt.Errorf("unterminated class type in %q", s)
		}
		return i + semi + 1, nil
	default:
		return 0, fmt.Errorf("unexpected %q in type %q", s[i], s)
	}
}

// SourceTypeName renders a field type descriptor the way it is written in
// source code, e.g. "[Ljava/lang/String;" -> "java.lang.String[]"
func SourceTypeName(desc string) string {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	base := desc[dims:]

	var name string
	switch base {
	case "B":
		name = "byte"
	case "C":
		name = "char"
	case "D":
		name = "double"
	case "F":
		name = "float"
	case "I":
		name = "int"
	case "J":
		name = "long"
	case "S":
		name = "short"
	case "Z":
		name = "boolean"
	case "V":
		name = "void"
	default:
		if strings.HasPrefix(base, "L") && strings.HasSuffix(base, ";") {
			name = strings.ReplaceAll(base[1:len(base)-1], "/", ".")
		} else {
			name = base
		}
	}
	return name + strings.Repeat("[]", dims)
}

// MethodText renders name and descriptor as a source-like signature,
// e.g. "void run(int, java.lang.String)". Used in trace messages.
func MethodText(name, desc string) string {
	mt, err := ParseMethodDescriptor(desc)
	if err != nil {
		return name + desc
	}
	params := make([]string, len(mt.Params))
	for i, p := range mt.Params {
		params[i] = SourceTypeName(p)
	}
	return SourceTypeName(mt.Return) + " " + name + "(" + strings.Join(params, ", ") + ")"
}
