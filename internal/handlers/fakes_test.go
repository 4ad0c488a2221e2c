package handlers

import (
	"context"
	"sort"
	"time"

	"clientdesk/internal/model"
	"clientdesk/internal/outbox"
	"clientdesk/internal/scheduling"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeTx satisfies pgx.Tx through embedding; handlers only ever call Commit
// and Rollback on the transaction directly, the fakes ignore it otherwise.
type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

type fakeAppointmentStore struct {
	nextID         int64
	appointments   map[int64]model.Appointment
	conflictChecks int
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{appointments: map[int64]model.Appointment{}}
}

func (s *fakeAppointmentStore) add(userID, clientID int64, at time.Time, status scheduling.Status) int64 {
	s.nextID++
	s.appointments[s.nextID] = model.Appointment{
		ID:       s.nextID,
		UserID:   userID,
		ClientID: clientID,
		Date:     at,
		Status:   status,
		Client:   &model.Client{ID: clientID},
	}
	return s.nextID
}

func (s *fakeAppointmentStore) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

func (s *fakeAppointmentStore) ListBlockingAtTx(_ context.Context, _ pgx.Tx, userID int64, at time.Time) ([]scheduling.Booking, error) {
	s.conflictChecks++
	var out []scheduling.Booking
	for _, a := range s.appointments {
		if a.UserID == userID && a.Date.Equal(at) && a.Status.Blocks() {
			out = append(out, scheduling.Booking{Date: a.Date, Status: a.Status})
		}
	}
	return out, nil
}

func (s *fakeAppointmentStore) CreateTx(_ context.Context, _ pgx.Tx, userID, clientID int64, at time.Time) (int64, error) {
	return s.add(userID, clientID, at, scheduling.StatusPending), nil
}

func (s *fakeAppointmentStore) UpdateStatusTx(_ context.Context, _ pgx.Tx, id int64, status scheduling.Status) (scheduling.Status, error) {
	a, ok := s.appointments[id]
	if !ok {
		return "", pgx.ErrNoRows
	}
	prev := a.Status
	a.Status = status
	s.appointments[id] = a
	return prev, nil
}

func (s *fakeAppointmentStore) DeleteTx(_ context.Context, _ pgx.Tx, id int64) error {
	if _, ok := s.appointments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.appointments, id)
	return nil
}

func (s *fakeAppointmentStore) GetWithClient(_ context.Context, id int64) (model.Appointment, error) {
	a, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, pgx.ErrNoRows
	}
	return a, nil
}

func (s *fakeAppointmentStore) ListAll(context.Context) ([]model.Appointment, error) {
	out := make([]model.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type fakeEventStore struct {
	events []outbox.Event
}

func (s *fakeEventStore) Insert(_ context.Context, _ pgx.Tx, evt outbox.Event) error {
	s.events = append(s.events, evt)
	return nil
}

type fakeClientStore struct {
	nextID           int64
	clients          map[int64]model.Client
	appointmentCount map[int64]int64
}

func newFakeClientStore() *fakeClientStore {
	return &fakeClientStore{
		clients:          map[int64]model.Client{},
		appointmentCount: map[int64]int64{},
	}
}

func (s *fakeClientStore) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

func (s *fakeClientStore) List(context.Context) ([]model.Client, error) {
	out := make([]model.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeClientStore) Get(_ context.Context, id int64) (model.Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return model.Client{}, pgx.ErrNoRows
	}
	return c, nil
}

func (s *fakeClientStore) Create(_ context.Context, name, email, phone string) (model.Client, error) {
	for _, c := range s.clients {
		if c.Email == email {
			return model.Client{}, &pgconn.PgError{Code: "23505"}
		}
	}
	s.nextID++
	c := model.Client{ID: s.nextID, Name: name, Email: email, Phone: phone}
	s.clients[c.ID] = c
	return c, nil
}

func (s *fakeClientStore) Update(_ context.Context, id int64, name, email, phone string) (model.Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return model.Client{}, pgx.ErrNoRows
	}
	for otherID, other := range s.clients {
		if otherID != id && other.Email == email {
			return model.Client{}, &pgconn.PgError{Code: "23505"}
		}
	}
	c.Name, c.Email, c.Phone = name, email, phone
	s.clients[id] = c
	return c, nil
}

func (s *fakeClientStore) DeleteCascadeTx(_ context.Context, _ pgx.Tx, id int64) (int64, error) {
	if _, ok := s.clients[id]; !ok {
		return 0, pgx.ErrNoRows
	}
	removed := s.appointmentCount[id]
	delete(s.appointmentCount, id)
	delete(s.clients, id)
	return removed, nil
}

type fakeUserStore struct {
	nextID int64
	users  map[int64]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]model.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, name, email, passwordHash string) (model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return model.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	s.nextID++
	u := model.User{ID: s.nextID, Name: name, Email: email, PasswordHash: passwordHash}
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, pgx.ErrNoRows
}

func (s *fakeUserStore) GetByID(_ context.Context, id int64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, pgx.ErrNoRows
	}
	return u, nil
}
