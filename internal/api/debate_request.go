package api

import "debatearena/internal/debate"

type historyTurnRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type aiResponseRequest struct {
	UserMessage         string               `json:"userMessage"`
	CharacterID         string               `json:"characterId"`
	Topic               string               `json:"topic"`
	UserSide            string               `json:"userSide"`
	AISide              string               `json:"aiSide"`
	ConversationHistory []historyTurnRequest `json:"conversationHistory"`
}

func (r aiResponseRequest) toDebate() debate.TurnRequest {
	history := make([]debate.Turn, 0, len(r.ConversationHistory))
	for _, turn := range r.ConversationHistory {
		history = append(history, debate.Turn{Role: turn.Role, Text: turn.Text})
	}
	return debate.TurnRequest{
		UserMessage: r.UserMessage,
		CharacterID: r.CharacterID,
		Topic:       r.Topic,
		UserSide:    r.UserSide,
		AISide:      r.AISide,
		History:     history,
	}
}

type scoreRequest struct {
	Response       string `json:"response"`
	Topic          string `json:"topic"`
	CharacterLevel string `json:"characterLevel"`
}

func (r scoreRequest) toDebate() debate.ScoreRequest {
	return debate.ScoreRequest{
		Response:       r.Response,
		Topic:          r.Topic,
		CharacterLevel: r.CharacterLevel,
	}
}

type introductionRequest struct {
	CharacterID string `json:"characterId"`
	Topic       string `json:"topic"`
	AISide      string `json:"aiSide"`
}

func (r introductionRequest) toDebate() debate.IntroRequest {
	return debate.IntroRequest{
		CharacterID: r.CharacterID,
		Topic:       r.Topic,
		AISide:      r.AISide,
	}
}

type saveTopicRequest struct {
	Topic string `json:"topic"`
}

type roomTokenRequest struct {
	RoomName        string `json:"roomName"`
	ParticipantName string `json:"participantName"`
}
