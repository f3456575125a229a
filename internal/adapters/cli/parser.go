// Package cli は対話シェルのコマンド解析、一覧表の描画、セッションを提供します。
package cli

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSyntax はコマンド行の書式が不正な場合のエラーです。
	ErrSyntax = errors.New("cli: syntax error")
	// ErrUsage はコマンドの引数が不正な場合のエラーです。
	ErrUsage = errors.New("cli: usage")
)

// 括弧なしで入力できるコマンドです。
var bareCommands = map[string]bool{
	"EXIT": true, "QUIT": true, "HELP": true,
	"NEXT": true, "PREV": true, "LIST": true,
}

// Call は解析済みのコマンド行です。
type Call struct {
	Name string
	Args []string
}

// ParseCall は次の形式の行を解析します。
//
//	ADD(firstName=John,lastName=Doe,...)
//	SEARCH("new york")
//	DELETE(1718000000000)
//	NEXT
//
// 空行の場合は空の Call と nil を返します。
func ParseCall(line string) (Call, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Call{}, nil
	}

	if up := strings.ToUpper(line); bareCommands[up] {
		return Call{Name: up, Args: []string{}}, nil
	}

	open := strings.IndexByte(line, '(')
	end := strings.LastIndexByte(line, ')')
	if open <= 0 || end < open || strings.TrimSpace(line[end+1:]) != "" {
		return Call{}, fmt.Errorf("%w: expected format CMD(arg1,arg2,...)", ErrSyntax)
	}

	args, err := SplitArgs(line[open+1 : end])
	if err != nil {
		return Call{}, err
	}
	return Call{Name: strings.ToUpper(strings.TrimSpace(line[:open])), Args: args}, nil
}

// SplitArgs はカンマで分割します。二重引用符内のカンマと \" \\ \n \t のエスケープを扱います。
func SplitArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return []string{}, nil
	}

	var (
		args     []string
		cur      strings.Builder
		inQuotes bool
		escape   bool
		quoted   bool
	)

	flush := func() error {
		arg := cur.String()
		if !quoted {
			arg = strings.TrimSpace(arg)
			if arg == "" {
				return fmt.Errorf("%w: empty argument not allowed", ErrSyntax)
			}
		}
		args = append(args, arg)
		cur.Reset()
		quoted = false
		return nil
	}

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if escape {
			switch ch {
			case 'n':
				cur.WriteByte('\n')
			case 't':
				cur.WriteByte('\t')
			default:
				cur.WriteByte(ch)
			}
			escape = false
			continue
		}

		switch {
		case ch == '\\' && inQuotes:
			escape = true
		case ch == '"':
			inQuotes = !inQuotes
			quoted = true
		case ch == ',' && !inQuotes:
			if err := flush(); err != nil {
				return nil, err
			}
		case !inQuotes && (ch == ' ' || ch == '\t') && (cur.Len() == 0 || quoted):
			// 引数先頭と閉じ引用符の後の空白は無視する
		default:
			cur.WriteByte(ch)
		}
	}

	if escape {
		return nil, fmt.Errorf("%w: unfinished escape sequence in quotes", ErrSyntax)
	}
	if inQuotes {
		return nil, fmt.Errorf("%w: unterminated quote (\")", ErrSyntax)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return args, nil
}

// ParseAssignments は key=value 形式の引数を対応表にします。キーは大文字小文字を区別しません。
func ParseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: expected field=value, got %q", ErrSyntax, arg)
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("%w: field %q given twice", ErrSyntax, key)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}
