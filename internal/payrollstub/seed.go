package payrollstub

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Seed is the initial data set the stub serves.
type Seed struct {
	Version      int               `yaml:"version"`
	CompanyUsers []SeedCompanyUser `yaml:"company_users"`
	Reviewers    []SeedReviewer    `yaml:"reviewers"`
	Runs         []SeedRun         `yaml:"runs"`
}

type SeedCompanyUser struct {
	ID       string `yaml:"id"`
	FullName string `yaml:"full_name"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
}

type SeedReviewer struct {
	ID            string `yaml:"id"`
	CompanyUserID string `yaml:"company_user_id"`
	Level         int    `yaml:"level"`
}

type SeedRun struct {
	ID            string         `yaml:"id"`
	PayrollMonth  int            `yaml:"payroll_month"`
	PayrollYear   int            `yaml:"payroll_year"`
	PayrollNumber string         `yaml:"payroll_number"`
	Status        string         `yaml:"status"`
	Currency      string         `yaml:"currency"`
	Employees     []SeedEmployee `yaml:"employees"`
}

type SeedEmployee struct {
	ID             string          `yaml:"id"`
	Name           string          `yaml:"name"`
	JobTitle       string          `yaml:"job_title"`
	Department     string          `yaml:"department"`
	BasicSalary    string          `yaml:"basic_salary"`
	GrossPay       string          `yaml:"gross_pay"`
	TotalDeduction string          `yaml:"total_deduction"`
	TaxPayable     string          `yaml:"tax_payable"`
	NetPay         string          `yaml:"net_pay"`
	Allowances     []SeedAllowance `yaml:"allowances"`
}

type SeedAllowance struct {
	TypeCode string         `yaml:"type_code"`
	Name     string         `yaml:"name"`
	Amount   string         `yaml:"amount"`
	Payload  map[string]any `yaml:"payload"`
}

func ParseSeedYAML(b []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Seed{}, err
	}
	if s.Version != 1 {
		return Seed{}, errors.New("payrollstub: unsupported seed version")
	}
	users := make(map[string]bool, len(s.CompanyUsers))
	for _, u := range s.CompanyUsers {
		if strings.TrimSpace(u.ID) == "" {
			return Seed{}, errors.New("payrollstub: company user without id")
		}
		users[u.ID] = true
	}
	levels := map[int]bool{}
	for _, r := range s.Reviewers {
		if !users[r.CompanyUserID] {
			return Seed{}, errors.New("payrollstub: reviewer references unknown company user " + r.CompanyUserID)
		}
		if r.Level < 1 || levels[r.Level] {
			return Seed{}, errors.New("payrollstub: reviewer levels must be positive and unique")
		}
		levels[r.Level] = true
	}
	for _, run := range s.Runs {
		if strings.TrimSpace(run.ID) == "" {
			return Seed{}, errors.New("payrollstub: run without id")
		}
	}
	return s, nil
}

func LoadSeed(path string) (Seed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	return ParseSeedYAML(b)
}
