package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ogurasousui/hrnet/internal/adapters/export"
	"github.com/ogurasousui/hrnet/internal/core/employee"
	"github.com/ogurasousui/hrnet/internal/core/employeelist"
)

const prompt = "> "

// Usage は HELP で表示するコマンド一覧です。
const Usage = `Commands:
  LIST                               show the current page
  ADD(field=value,...)               create an employee
  EDIT(id,field=value,...)           change fields of an employee
  DELETE(id)                         remove an employee
  SHOW(id)                           show one employee
  SEARCH(text) / SEARCH()            filter by first/last name, department, city, state
  SORT(column[,asc|desc]) / SORT()   sort by a column; repeat to toggle direction
  SIZE(10|25|50|100)                 entries per page
  PAGE(n) / NEXT / PREV              move between pages
  EXPORT(pdf|xlsx,path)              write the filtered list to a file
  IMPORT(path)                       add employees from an xlsx file
  HELP / EXIT
Fields: firstName lastName dateOfBirth startDate street city state zipCode department
Dates: YYYY-MM-DD`

// Session は対話シェル 1 回分の状態です。
type Session struct {
	svc    employee.UseCase
	view   *employeelist.View
	out    io.Writer
	logger *slog.Logger
}

// NewSession は Session を生成します。
func NewSession(svc employee.UseCase, view *employeelist.View, out io.Writer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{svc: svc, view: view, out: out, logger: logger}
}

// Run は入力が尽きるか EXIT が入力されるまでコマンドを実行します。
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, "HRnet ready. Type HELP for commands.")
	if err := RenderPage(s.out, s.view.Current(), s.view.State()); err != nil {
		return err
	}

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, prompt)
		if !sc.Scan() {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		quit, err := s.Execute(ctx, sc.Text())
		if err != nil {
			RenderError(s.out, err)
		}
		if quit {
			return nil
		}
	}
	return sc.Err()
}

// Execute は 1 行を解析して実行します。EXIT の場合は quit に true を返します。
func (s *Session) Execute(ctx context.Context, line string) (quit bool, err error) {
	call, err := ParseCall(line)
	if err != nil || call.Name == "" {
		return false, err
	}

	s.logger.Debug("command", "name", call.Name, "args", len(call.Args))

	switch call.Name {
	case "EXIT", "QUIT":
		return true, nil
	case "HELP":
		_, err = fmt.Fprintln(s.out, Usage)
	case "LIST":
		err = s.render(s.view.Current())
	case "ADD":
		err = s.add(ctx, call.Args)
	case "EDIT":
		err = s.edit(ctx, call.Args)
	case "DELETE":
		err = s.delete(ctx, call.Args)
	case "SHOW":
		err = s.show(ctx, call.Args)
	case "SEARCH":
		err = s.search(call.Args)
	case "SORT":
		err = s.sort(call.Args)
	case "SIZE":
		err = s.size(call.Args)
	case "PAGE":
		err = s.page(call.Args)
	case "NEXT":
		err = s.render(s.view.NextPage())
	case "PREV":
		err = s.render(s.view.PreviousPage())
	case "EXPORT":
		err = s.export(call.Args)
	case "IMPORT":
		err = s.importFile(ctx, call.Args)
	default:
		err = fmt.Errorf("%w: unknown command %s (type HELP)", ErrUsage, call.Name)
	}
	return false, err
}

func (s *Session) render(page employeelist.Page) error {
	return RenderPage(s.out, page, s.view.State())
}

func (s *Session) add(ctx context.Context, args []string) error {
	fields, err := ParseAssignments(args)
	if err != nil {
		return err
	}
	in, err := applyFields(employee.Input{}, fields)
	if err != nil {
		return err
	}

	created, err := s.svc.CreateEmployee(ctx, employee.CreateEmployeeInput{Fields: in, Strict: true})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "created %s\n", created.ID)
	return s.render(s.view.Current())
}

func (s *Session) edit(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: EDIT(id,field=value,...)", ErrUsage)
	}
	fields, err := ParseAssignments(args[1:])
	if err != nil {
		return err
	}

	current, err := s.svc.GetEmployee(ctx, employee.GetEmployeeInput{ID: args[0]})
	if err != nil {
		return err
	}
	in, err := applyFields(employee.ToInput(*current), fields)
	if err != nil {
		return err
	}

	updated, err := s.svc.SaveEmployee(ctx, employee.SaveEmployeeInput{ID: current.ID, Fields: in, Strict: true})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "updated %s\n", updated.ID)
	return s.render(s.view.Current())
}

func (s *Session) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: DELETE(id)", ErrUsage)
	}
	if err := s.svc.DeleteEmployee(ctx, employee.DeleteEmployeeInput{ID: args[0]}); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "deleted %s\n", args[0])
	return s.render(s.view.Current())
}

func (s *Session) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: SHOW(id)", ErrUsage)
	}
	found, err := s.svc.GetEmployee(ctx, employee.GetEmployeeInput{ID: args[0]})
	if err != nil {
		return err
	}
	return RenderEmployee(s.out, *found)
}

func (s *Session) search(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: SEARCH(text)", ErrUsage)
	}
	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	return s.render(s.view.SetSearch(query))
}

func (s *Session) sort(args []string) error {
	switch len(args) {
	case 0:
		page, err := s.view.SetSort(employeelist.SortNone, employeelist.Ascending)
		if err != nil {
			return err
		}
		return s.render(page)
	case 1:
		key, err := parseColumn(args[0])
		if err != nil {
			return err
		}
		page, err := s.view.RequestSort(key)
		if err != nil {
			return err
		}
		return s.render(page)
	case 2:
		key, err := parseColumn(args[0])
		if err != nil {
			return err
		}
		dir, err := employeelist.ParseSortDirection(strings.ToLower(args[1]))
		if err != nil {
			return err
		}
		page, err := s.view.SetSort(key, dir)
		if err != nil {
			return err
		}
		return s.render(page)
	default:
		return fmt.Errorf("%w: SORT(column[,asc|desc])", ErrUsage)
	}
}

func (s *Session) size(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: SIZE(n)", ErrUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || !slices.Contains(employeelist.PageSizeOptions(), n) {
		return fmt.Errorf("%w: SIZE must be one of %v", ErrUsage, employeelist.PageSizeOptions())
	}
	page, err := s.view.SetPageSize(n)
	if err != nil {
		return err
	}
	return s.render(page)
}

func (s *Session) page(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: PAGE(n)", ErrUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: PAGE needs a number", ErrUsage)
	}
	return s.render(s.view.SetPage(n))
}

func (s *Session) export(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: EXPORT(pdf|xlsx,path)", ErrUsage)
	}
	rows := s.view.Matching()
	if err := WriteExport(args[0], args[1], rows); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "exported %d entries to %s\n", len(rows), args[1])
	return nil
}

func (s *Session) importFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: IMPORT(path)", ErrUsage)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("cli: open %s: %w", args[0], err)
	}
	defer f.Close()

	inputs, err := export.ReadXLSX(f)
	if err != nil {
		return err
	}

	var errs []error
	created := 0
	for i, in := range inputs {
		if _, err := s.svc.CreateEmployee(ctx, employee.CreateEmployeeInput{Fields: in, Strict: true}); err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i+2, err))
			continue
		}
		created++
	}
	fmt.Fprintf(s.out, "imported %d of %d rows\n", created, len(inputs))
	if err := s.render(s.view.Current()); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// WriteExport は format ("pdf" または "xlsx") に従い rows を path へ書き出します。
func WriteExport(format, path string, rows []employee.Employee) (err error) {
	format = strings.ToLower(format)
	if format != "pdf" && format != "xlsx" {
		return fmt.Errorf("%w: export format must be pdf or xlsx", ErrUsage)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cli: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if format == "pdf" {
		return export.WritePDF(f, rows, "Current Employees")
	}
	return export.WriteXLSX(f, rows)
}

// parseColumn は列名を大文字小文字を区別せずに SortKey へ変換します。
func parseColumn(raw string) (employeelist.SortKey, error) {
	for _, c := range employeelist.Columns() {
		if strings.EqualFold(raw, string(c.Key)) {
			return c.Key, nil
		}
	}
	return employeelist.SortNone, fmt.Errorf("%q: %w", raw, employeelist.ErrInvalidSortKey)
}

// applyFields は field=value の対応表を入力へ上書きします。
func applyFields(in employee.Input, fields map[string]string) (employee.Input, error) {
	for key, value := range fields {
		switch key {
		case strings.ToLower(employee.FieldFirstName):
			in.FirstName = value
		case strings.ToLower(employee.FieldLastName):
			in.LastName = value
		case strings.ToLower(employee.FieldDateOfBirth):
			in.DateOfBirth = value
		case strings.ToLower(employee.FieldStartDate):
			in.StartDate = value
		case strings.ToLower(employee.FieldStreet):
			in.Street = value
		case strings.ToLower(employee.FieldCity):
			in.City = value
		case strings.ToLower(employee.FieldState):
			in.State = value
		case strings.ToLower(employee.FieldZipCode):
			in.ZipCode = value
		case strings.ToLower(employee.FieldDepartment):
			in.Department = value
		default:
			return in, fmt.Errorf("%w: unknown field %q", ErrUsage, key)
		}
	}
	return in, nil
}
