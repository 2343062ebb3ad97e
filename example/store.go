package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var errNotFound = errors.New("not found")

// Person is an employee.
type Person struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	CompanyID string `json:"companyId"`
	BossID    string `json:"bossId,omitempty"`
}

// Company employs people.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CompanyView is a company together with its employees.
type CompanyView struct {
	Company
	Employees []*Person `json:"employees"`
}

// PeoplePage is a search result.
type PeoplePage struct {
	Query  string    `json:"query,omitempty"`
	Count  int       `json:"count"`
	People []*Person `json:"people"`
}

// Store is an in-memory people and company store.
type Store struct {
	mu        sync.RWMutex
	people    map[string]*Person
	companies map[string]*Company
	nextID    int
}

// NewStore creates a new store with sample data.
func NewStore() *Store {
	s := &Store{
		people:    make(map[string]*Person),
		companies: make(map[string]*Company),
		nextID:    1,
	}

	s.companies["1"] = &Company{ID: "1", Name: "Acme"}
	s.companies["2"] = &Company{ID: "2", Name: "Globex"}

	alice := s.Add("Alice", "Jones", "1", "")
	s.Add("Bob", "Smith", "1", alice)
	s.Add("Carol", "White", "1", alice)
	s.Add("Dan", "Brown", "2", "")

	return s
}

// Add creates a new person and returns its ID.
func (s *Store) Add(first, last, companyID, bossID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprint(s.nextID)
	s.nextID++
	s.people[id] = &Person{ID: id, FirstName: first, LastName: last, CompanyID: companyID, BossID: bossID}
	return id
}

// Person returns a person by ID.
func (s *Store) Person(id string) (*Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.people[id]
	if !ok {
		return nil, fmt.Errorf("person %s: %w", id, errNotFound)
	}
	return p, nil
}

// Company returns a company and its employees.
func (s *Store) Company(id string) (*CompanyView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, fmt.Errorf("company %s: %w", id, errNotFound)
	}
	view := &CompanyView{Company: *c, Employees: []*Person{}}
	for _, p := range s.sorted() {
		if p.CompanyID == id {
			view.Employees = append(view.Employees, p)
		}
	}
	return view, nil
}

// Search returns the people whose name contains q, ordered by ID.
func (s *Store) Search(q string) *PeoplePage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page := &PeoplePage{Query: q, People: []*Person{}}
	q = strings.ToLower(q)
	for _, p := range s.sorted() {
		name := strings.ToLower(p.FirstName + " " + p.LastName)
		if q == "" || strings.Contains(name, q) {
			page.People = append(page.People, p)
		}
	}
	page.Count = len(page.People)
	return page
}

// sorted returns people by numeric ID. Callers hold the lock.
func (s *Store) sorted() []*Person {
	out := make([]*Person, 0, len(s.people))
	for _, p := range s.people {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].ID) != len(out[j].ID) {
			return len(out[i].ID) < len(out[j].ID)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
