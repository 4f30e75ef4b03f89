package inmemdb

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/year"
)

// DB is an in-memory store backing the repository interfaces in tests.
// Atomic is implemented by snapshotting all tables and restoring them when
// the closure fails, which gives tests real rollback semantics without
// Postgres.
type DB struct {
	mu sync.Mutex

	years       map[string]year.Year
	students    map[string]school.Student
	teachers    map[string]school.Teacher
	classes     map[string]school.Class
	subjects    map[string]school.Subject
	grades      map[string]school.Grade
	payments    map[string]school.Payment
	attendance  map[string]school.Attendance
	evaluations map[string]school.Evaluation
	staff       map[string]school.Staff
	expenses    map[string]school.Expense
	rules       map[string]promotion.Rule

	failOn map[string]error
}

func Open() *DB {
	return &DB{
		years:       make(map[string]year.Year),
		students:    make(map[string]school.Student),
		teachers:    make(map[string]school.Teacher),
		classes:     make(map[string]school.Class),
		subjects:    make(map[string]school.Subject),
		grades:      make(map[string]school.Grade),
		payments:    make(map[string]school.Payment),
		attendance:  make(map[string]school.Attendance),
		evaluations: make(map[string]school.Evaluation),
		staff:       make(map[string]school.Staff),
		expenses:    make(map[string]school.Expense),
		rules:       make(map[string]promotion.Rule),
		failOn:      make(map[string]error),
	}
}

// FailOn makes the named operation return err; used to exercise rollbacks.
// Op names: "DeleteYearByID", "DeleteScoped:<kind>", "CreateClass", ...
func (db *DB) FailOn(op string, err error) {
	db.failOn[op] = err
}

func (db *DB) fail(op string) error {
	return db.failOn[op]
}

func newID() string {
	return uuid.New().String()
}

type dbState struct {
	years       map[string]year.Year
	students    map[string]school.Student
	teachers    map[string]school.Teacher
	classes     map[string]school.Class
	subjects    map[string]school.Subject
	grades      map[string]school.Grade
	payments    map[string]school.Payment
	attendance  map[string]school.Attendance
	evaluations map[string]school.Evaluation
	staff       map[string]school.Staff
	expenses    map[string]school.Expense
	rules       map[string]promotion.Rule
}

func (db *DB) snapshot() dbState {
	s := dbState{
		years:       make(map[string]year.Year, len(db.years)),
		students:    make(map[string]school.Student, len(db.students)),
		teachers:    make(map[string]school.Teacher, len(db.teachers)),
		classes:     make(map[string]school.Class, len(db.classes)),
		subjects:    make(map[string]school.Subject, len(db.subjects)),
		grades:      make(map[string]school.Grade, len(db.grades)),
		payments:    make(map[string]school.Payment, len(db.payments)),
		attendance:  make(map[string]school.Attendance, len(db.attendance)),
		evaluations: make(map[string]school.Evaluation, len(db.evaluations)),
		staff:       make(map[string]school.Staff, len(db.staff)),
		expenses:    make(map[string]school.Expense, len(db.expenses)),
		rules:       make(map[string]promotion.Rule, len(db.rules)),
	}
	for k, v := range db.years {
		s.years[k] = v
	}
	for k, v := range db.students {
		s.students[k] = v
	}
	for k, v := range db.teachers {
		s.teachers[k] = v
	}
	for k, v := range db.classes {
		s.classes[k] = v
	}
	for k, v := range db.subjects {
		s.subjects[k] = v
	}
	for k, v := range db.grades {
		s.grades[k] = v
	}
	for k, v := range db.payments {
		s.payments[k] = v
	}
	for k, v := range db.attendance {
		s.attendance[k] = v
	}
	for k, v := range db.evaluations {
		s.evaluations[k] = v
	}
	for k, v := range db.staff {
		s.staff[k] = v
	}
	for k, v := range db.expenses {
		s.expenses[k] = v
	}
	for k, v := range db.rules {
		s.rules[k] = v
	}
	return s
}

func (db *DB) restore(s dbState) {
	db.years = s.years
	db.students = s.students
	db.teachers = s.teachers
	db.classes = s.classes
	db.subjects = s.subjects
	db.grades = s.grades
	db.payments = s.payments
	db.attendance = s.attendance
	db.evaluations = s.evaluations
	db.staff = s.staff
	db.expenses = s.expenses
	db.rules = s.rules
}

// Seed helpers; ids are minted when blank. Test setup only.

func (db *DB) SeedYear(name string, active bool) year.Year {
	db.mu.Lock()
	defer db.mu.Unlock()
	start, end, _ := year.ParseName(name)
	y := year.Year{
		ID:        newID(),
		Name:      name,
		StartYear: start,
		EndYear:   end,
		Active:    active,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	db.years[y.ID] = y
	return y
}

func (db *DB) SeedStudent(s school.Student) school.Student {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.ID == "" {
		s.ID = newID()
	}
	db.students[s.ID] = s
	return s
}

func (db *DB) SeedTeacher(t school.Teacher) school.Teacher {
	db.mu.Lock()
	defer db.mu.Unlock()
	if t.ID == "" {
		t.ID = newID()
	}
	db.teachers[t.ID] = t
	return t
}

func (db *DB) SeedClass(c school.Class) school.Class {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	db.classes[c.ID] = c
	return c
}

func (db *DB) SeedSubject(s school.Subject) school.Subject {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.ID == "" {
		s.ID = newID()
	}
	db.subjects[s.ID] = s
	return s
}

func (db *DB) SeedGrade(g school.Grade) school.Grade {
	db.mu.Lock()
	defer db.mu.Unlock()
	if g.ID == "" {
		g.ID = newID()
	}
	db.grades[g.ID] = g
	return g
}

func (db *DB) SeedPayment(p school.Payment) school.Payment {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	db.payments[p.ID] = p
	return p
}

func (db *DB) SeedAttendance(a school.Attendance) school.Attendance {
	db.mu.Lock()
	defer db.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	db.attendance[a.ID] = a
	return a
}

func (db *DB) SeedEvaluation(e school.Evaluation) school.Evaluation {
	db.mu.Lock()
	defer db.mu.Unlock()
	if e.ID == "" {
		e.ID = newID()
	}
	db.evaluations[e.ID] = e
	return e
}

func (db *DB) SeedStaff(s school.Staff) school.Staff {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.ID == "" {
		s.ID = newID()
	}
	db.staff[s.ID] = s
	return s
}

func (db *DB) SeedExpense(e school.Expense) school.Expense {
	db.mu.Lock()
	defer db.mu.Unlock()
	if e.ID == "" {
		e.ID = newID()
	}
	db.expenses[e.ID] = e
	return e
}

func (db *DB) SeedRule(r promotion.Rule) promotion.Rule {
	db.mu.Lock()
	defer db.mu.Unlock()
	if r.ID == "" {
		r.ID = newID()
	}
	db.rules[r.ID] = r
	return r
}

// DeleteRule is a test helper undoing a SeedRule.
func (db *DB) DeleteRule(id string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.rules, id)
}

// SubjectsByYear is a test helper listing a year's subjects.
func (db *DB) SubjectsByYear(yearID string) []school.Subject {
	db.mu.Lock()
	defer db.mu.Unlock()
	var res []school.Subject
	for _, s := range db.subjects {
		if s.AcademicYearID == yearID {
			res = append(res, s)
		}
	}
	return res
}
