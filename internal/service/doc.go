// Package service implements the GRISERA business rules on top of a
// repository.Repository.
//
// Entity is the CRUD service shared by every collection: it validates input,
// checks that related entities exist, persists and publishes change events.
// AppearanceService, ScenarioService and TimeSeriesService add the behaviour
// specific to those entities. Registry builds all of them from one repository.
//
// Reads return domain.Result so a missing entity is a value rather than an
// error. Rejected writes return a *domain.ValidationError.
package service
