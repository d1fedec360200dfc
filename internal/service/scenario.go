package service

import (
	"context"

	"grisera/internal/domain"
)

const activityExecutionIDsField = "activity_execution_ids"

// ScenarioService creates scenarios together with their activity executions
type ScenarioService struct {
	*Entity
	executions *Entity
}

// Save creates the inline activity executions and then the scenario linking
// both the given and the new executions. Every referenced entity is checked
// before anything is written.
func (s *ScenarioService) Save(ctx context.Context, in domain.ScenarioIn) (domain.Document, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	rels, err := domain.ToDocument(in.ScenarioRelationIn)
	if err != nil {
		return nil, err
	}
	if err := s.CheckRelations(ctx, rels); err != nil {
		return nil, err
	}
	inline := make([]domain.Document, 0, len(in.ActivityExecutions))
	for _, e := range in.ActivityExecutions {
		doc, err := domain.ToDocument(e)
		if err != nil {
			return nil, err
		}
		if err := s.executions.CheckRelations(ctx, doc); err != nil {
			return nil, err
		}
		inline = append(inline, doc)
	}

	ids := append([]string{}, in.ActivityExecutionIDs...)
	var created []string
	for _, doc := range inline {
		e, err := s.executions.SaveDocument(ctx, doc)
		if err != nil {
			s.discardExecutions(ctx, created)
			return nil, err
		}
		created = append(created, e.ID())
	}
	ids = append(ids, created...)

	doc, err := domain.ToDocument(in.ScenarioPropertyIn)
	if err != nil {
		return nil, err
	}
	doc["experiment_id"] = in.ExperimentID
	if len(ids) > 0 {
		doc[activityExecutionIDsField] = ids
	}
	scenario, err := s.SaveDocument(ctx, doc)
	if err != nil {
		s.discardExecutions(ctx, created)
		return nil, err
	}
	return scenario, nil
}

func (s *ScenarioService) discardExecutions(ctx context.Context, ids []string) {
	for _, id := range ids {
		if _, err := s.executions.Delete(ctx, id); err != nil {
			s.log.Warn("failed to remove activity execution of rejected scenario", "id", id, "error", err)
		}
	}
}

// AddActivityExecution creates an activity execution and appends it to the
// scenario
func (s *ScenarioService) AddActivityExecution(ctx context.Context, scenarioID string, in domain.ActivityExecutionIn) (domain.Result, error) {
	if err := Validate(in); err != nil {
		return domain.Result{}, err
	}
	res, err := s.Get(ctx, scenarioID, 0, domain.NoSource)
	if err != nil || !res.IsFound() {
		return res, err
	}
	execution, err := s.executions.Save(ctx, in)
	if err != nil {
		return domain.Result{}, err
	}

	scenario := res.Document()
	rels := s.relations(scenario)
	rels[activityExecutionIDsField] = append(scenario.IDs(activityExecutionIDsField), execution.ID())
	return s.UpdateRelationshipsDocument(ctx, scenarioID, rels)
}
