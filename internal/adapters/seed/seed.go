// Package seed は動作確認用の社員データを生成して登録します。
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ogurasousui/hrnet/internal/core/employee"
)

var (
	firstNames = []string{
		"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael", "Linda",
		"William", "Elizabeth", "David", "Barbara", "Richard", "Susan", "Joseph", "Jessica",
		"Thomas", "Sarah", "Charles", "Karen", "Daniel", "Nancy", "Matthew", "Lisa",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
		"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson",
		"Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson", "White",
	}
	streetNames = []string{
		"Main St", "Oak Ave", "Pine St", "Maple Ave", "Cedar Ln", "Elm St", "Washington Blvd",
		"Lake Dr", "Hill Rd", "Park Ave", "Sunset Blvd", "River Rd",
	}
	cities = []string{
		"Springfield", "Franklin", "Greenville", "Bristol", "Clinton", "Fairview",
		"Salem", "Madison", "Georgetown", "Arlington", "Ashland", "Dover",
	}
)

// Generate は rnd から決定的に n 件の入力を生成します。
func Generate(n int, rnd *rand.Rand) []employee.Input {
	if n <= 0 {
		return nil
	}

	states := employee.States()
	departments := employee.Departments()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	out := make([]employee.Input, 0, n)
	for range n {
		birth := base.AddDate(-rnd.IntN(45)-20, 0, -rnd.IntN(365))
		start := base.AddDate(-rnd.IntN(15), 0, -rnd.IntN(365))

		out = append(out, employee.Input{
			FirstName:   pick(rnd, firstNames),
			LastName:    pick(rnd, lastNames),
			DateOfBirth: birth.Format(time.DateOnly),
			StartDate:   start.Format(time.DateOnly),
			Street:      fmt.Sprintf("%d %s", 1+rnd.IntN(9999), pick(rnd, streetNames)),
			City:        pick(rnd, cities),
			State:       pick(rnd, states).Abbreviation,
			ZipCode:     fmt.Sprintf("%05d", 501+rnd.IntN(99000)),
			Department:  string(pick(rnd, departments)),
		})
	}
	return out
}

// Creator は社員作成ユースケースです。employee.Service が実装します。
type Creator interface {
	CreateEmployee(ctx context.Context, in employee.CreateEmployeeInput) (*employee.Employee, error)
}

// Run は n 件を生成して登録し、登録件数を返します。
// idPrefix が空でなければ "<idPrefix><連番>" を ID とし、空なら Creator の採番に任せます。
func Run(ctx context.Context, creator Creator, n int, rnd *rand.Rand, idPrefix string) (int, error) {
	created := 0
	for i, in := range Generate(n, rnd) {
		id := ""
		if idPrefix != "" {
			id = fmt.Sprintf("%s%d", idPrefix, i+1)
		}
		if _, err := creator.CreateEmployee(ctx, employee.CreateEmployeeInput{ID: id, Fields: in, Strict: true}); err != nil {
			return created, fmt.Errorf("seed: employee %d: %w", i+1, err)
		}
		created++
	}
	return created, nil
}

func pick[T any](rnd *rand.Rand, values []T) T {
	return values[rnd.IntN(len(values))]
}
