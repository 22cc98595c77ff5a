package entity

import "slices"

// LeadTransition is an edge of the lead status graph.
type LeadTransition struct {
	From LeadStatus
	To   LeadStatus
}

var leadTransitions = map[LeadTransition]bool{
	{LeadStatusNew, LeadStatusSentToMeta}:       true,
	{LeadStatusSentToMeta, LeadStatusContacted}: true,
	{LeadStatusSentToMeta, LeadStatusQualified}: true,
	{LeadStatusContacted, LeadStatusQualified}:  true,
	{LeadStatusQualified, LeadStatusConverted}:  true,
	{LeadStatusNew, LeadStatusSpam}:             true,
	{LeadStatusSentToMeta, LeadStatusSpam}:      true,
	{LeadStatusContacted, LeadStatusSpam}:       true,
}

func CanTransitionLead(from, to LeadStatus) bool {
	return leadTransitions[LeadTransition{from, to}]
}

// LeadTransitionsFrom returns the targets reachable from `from`, sorted.
func LeadTransitionsFrom(from LeadStatus) []LeadStatus {
	targets := make([]LeadStatus, 0)
	for t := range leadTransitions {
		if t.From == from {
			targets = append(targets, t.To)
		}
	}
	slices.Sort(targets)
	return targets
}

func (s LeadStatus) Terminal() bool {
	return s == LeadStatusConverted || s == LeadStatusSpam
}

type ChatTransition struct {
	From ChatSessionStatus
	To   ChatSessionStatus
}

var chatTransitions = map[ChatTransition]bool{
	{ChatStatusNew, ChatStatusContacted}:       true,
	{ChatStatusContacted, ChatStatusLead}:      true,
	{ChatStatusLead, ChatStatusQualified}:      true,
	{ChatStatusQualified, ChatStatusConverted}: true,
	// qualification may skip ahead from any open status
	{ChatStatusNew, ChatStatusQualified}:       true,
	{ChatStatusContacted, ChatStatusQualified}: true,
}

func CanTransitionChat(from, to ChatSessionStatus) bool {
	return chatTransitions[ChatTransition{from, to}]
}

func (s ChatSessionStatus) Terminal() bool {
	return s == ChatStatusConverted
}
