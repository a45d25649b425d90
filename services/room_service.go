package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"trinity_server/models"
	"trinity_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// RoomService owns the room lifecycle: creation, membership, invite codes,
// filter immutability, and content-pool refreshes.
type RoomService struct {
	Dynamo        DB
	Pool          *ContentPoolService
	Notifier      *NotificationService
	InviteBaseURL string
	PoolSize      int
}

// CreateRoomInput carries the typed request for room creation.
type CreateRoomInput struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	IsPrivate     bool     `json:"isPrivate,omitempty"`
	MaxMembers    int      `json:"maxMembers,omitempty"`
	MediaType     string   `json:"mediaType,omitempty"`
	GenreIDs      []string `json:"genreIds,omitempty"`
	RequiredVotes int      `json:"requiredVotes,omitempty"` // 0 = unanimity
}

const historyLimit = 50

// CreateRoom creates a WAITING room plus its HOST membership row. A content
// filter, when supplied, is applied exactly once here and is immutable
// afterwards. Pool population problems are absorbed by the pool service —
// room creation never fails because of the catalog.
func (s *RoomService) CreateRoom(ctx context.Context, hostID string, input CreateRoomInput) (*models.Room, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: room name is required", ErrInvalidInput)
	}
	if len(input.GenreIDs) > models.MaxGenreFilters {
		return nil, ErrTooManyCategories
	}

	now := time.Now().UTC().Format(time.RFC3339)
	roomID := uuid.NewString()
	inviteCode := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	maxMembers := input.MaxMembers
	if maxMembers <= 0 {
		maxMembers = 10
	}

	room := &models.Room{
		ID:            roomID,
		SK:            models.RoomSortKey,
		HostID:        hostID,
		Name:          input.Name,
		Description:   input.Description,
		IsPrivate:     input.IsPrivate,
		MaxMembers:    maxMembers,
		Status:        models.RoomStatusWaiting,
		InviteCode:    inviteCode,
		InviteURL:     fmt.Sprintf("%s/join/%s", s.InviteBaseURL, inviteCode),
		MemberCount:   1,
		RequiredVotes: input.RequiredVotes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if input.MediaType != "" || len(input.GenreIDs) > 0 {
		room.MediaType = input.MediaType
		room.GenreIDs = input.GenreIDs

		pool := s.Pool.Fetch(ctx, input.MediaType, input.GenreIDs, s.PoolSize, nil)
		room.ContentIDs = contentIDsOf(pool)
		room.LastContentRefreshAt = now
		log.Printf("🎬 Room %s pool populated with %d items", roomID, len(room.ContentIDs))
	}

	if err := withRetries(ctx, "CreateRoom:putRoom", func() error {
		return s.Dynamo.PutItem(ctx, models.RoomsTable, room)
	}); err != nil {
		return nil, err
	}

	member := models.RoomMember{
		RoomID:   roomID,
		UserID:   hostID,
		Role:     models.RoleHost,
		IsActive: true,
		JoinedAt: now,
	}
	if err := withRetries(ctx, "CreateRoom:putHostMember", func() error {
		return s.Dynamo.PutItem(ctx, models.RoomMembersTable, member)
	}); err != nil {
		// Accepted narrow inconsistency: the room row exists in WAITING with
		// zero effective members. Not remediated automatically.
		log.Printf("❌ Room %s created but host membership write failed: %v", roomID, err)
		return nil, err
	}

	log.Printf("✅ Room %s created by %s (invite %s)", roomID, hostID, inviteCode)
	return room, nil
}

// JoinRoom adds userId to a WAITING room with free capacity. Joining is
// idempotent: an existing membership row, active or soft-deactivated, is
// reactivated, never duplicated. A rejoin by an already-active member does
// not count against capacity.
func (s *RoomService) JoinRoom(ctx context.Context, userID, roomID string) (*models.Room, error) {
	room, err := getRoomByID(ctx, s.Dynamo, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomStatusWaiting {
		return nil, ErrRoomNotJoinable
	}

	now := time.Now().UTC().Format(time.RFC3339)
	memberKey := map[string]types.AttributeValue{
		"roomId": &types.AttributeValueMemberS{Value: roomID},
		"userId": &types.AttributeValueMemberS{Value: userID},
	}

	var existing *models.RoomMember
	var memberItem map[string]types.AttributeValue
	err = withRetries(ctx, "JoinRoom:getMember", func() error {
		var getErr error
		memberItem, getErr = s.Dynamo.GetItem(ctx, models.RoomMembersTable, memberKey)
		return getErr
	})
	if err != nil && !errors.Is(err, ErrItemNotFound) {
		return nil, err
	}
	if err == nil {
		var member models.RoomMember
		if umErr := attributevalue.UnmarshalMap(memberItem, &member); umErr != nil {
			return nil, fmt.Errorf("%w: unreadable member row %s/%s: %v", ErrSchemaMismatch, roomID, userID, umErr)
		}
		existing = &member
	}

	if (existing == nil || !existing.IsActive) && room.MaxMembers > 0 && room.MemberCount >= room.MaxMembers {
		return nil, ErrRoomFull
	}

	newlyActive := false
	switch {
	case existing == nil:
		member := models.RoomMember{
			RoomID:   roomID,
			UserID:   userID,
			Role:     models.RoleMember,
			IsActive: true,
			JoinedAt: now,
		}
		if err := withRetries(ctx, "JoinRoom:putMember", func() error {
			return s.Dynamo.PutItem(ctx, models.RoomMembersTable, member)
		}); err != nil {
			return nil, err
		}
		newlyActive = true

	case !existing.IsActive:
		if err := withRetries(ctx, "JoinRoom:reactivateMember", func() error {
			_, updErr := s.Dynamo.UpdateItem(ctx, models.RoomMembersTable,
				"SET isActive = :active, lastSeenAt = :now",
				memberKey,
				map[string]types.AttributeValue{
					":active": &types.AttributeValueMemberBOOL{Value: true},
					":now":    &types.AttributeValueMemberS{Value: now},
				}, nil)
			return updErr
		}); err != nil {
			return nil, err
		}
		newlyActive = true

	default:
		log.Printf("🔁 User %s already an active member of room %s", userID, roomID)
	}

	updateExpression := "SET updatedAt = :now"
	values := map[string]types.AttributeValue{
		":now": &types.AttributeValueMemberS{Value: now},
	}
	if newlyActive {
		updateExpression = "SET memberCount = if_not_exists(memberCount, :zero) + :one, updatedAt = :now"
		values[":zero"] = &types.AttributeValueMemberN{Value: "0"}
		values[":one"] = &types.AttributeValueMemberN{Value: "1"}
	}
	if err := withRetries(ctx, "JoinRoom:updateRoom", func() error {
		_, updErr := s.Dynamo.UpdateItem(ctx, models.RoomsTable, updateExpression, roomKey(roomID), values, nil)
		return updErr
	}); err != nil {
		return nil, err
	}

	if newlyActive {
		room.MemberCount++
		s.Notifier.PublishRoomEvent(models.RoomEvent{
			Kind:      models.RoomEventJoin,
			RoomID:    roomID,
			UserID:    userID,
			Timestamp: now,
		})
	}
	room.UpdatedAt = now
	log.Printf("✅ User %s joined room %s (%d members)", userID, roomID, room.MemberCount)
	return room, nil
}

// JoinRoomByInvite resolves an invite code through the invite-code GSI and
// delegates to JoinRoom.
func (s *RoomService) JoinRoomByInvite(ctx context.Context, userID, inviteCode string) (*models.Room, error) {
	var items []map[string]types.AttributeValue
	err := withRetries(ctx, "JoinRoomByInvite:lookup", func() error {
		var queryErr error
		items, queryErr = s.Dynamo.QueryItemsWithIndex(ctx, models.RoomsTable, models.InviteCodeIndex,
			"inviteCode = :code",
			map[string]types.AttributeValue{
				":code": &types.AttributeValueMemberS{Value: inviteCode},
			}, nil, 1, false)
		return queryErr
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrInvalidInvite
	}

	roomID := utils.ExtractString(items[0], "PK")
	if roomID == "" {
		return nil, fmt.Errorf("%w: invite row missing room key", ErrSchemaMismatch)
	}
	return s.JoinRoom(ctx, userID, roomID)
}

// LeaveRoom soft-deactivates the membership row. The row is kept so history
// and rejoin both keep working.
func (s *RoomService) LeaveRoom(ctx context.Context, userID, roomID string) error {
	member, err := getRoomMember(ctx, s.Dynamo, roomID, userID)
	if err != nil {
		return err
	}
	if !member.IsActive {
		return nil // already left
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := withRetries(ctx, "LeaveRoom:deactivateMember", func() error {
		_, updErr := s.Dynamo.UpdateItem(ctx, models.RoomMembersTable,
			"SET isActive = :inactive, lastSeenAt = :now",
			memberKeyOf(roomID, userID),
			map[string]types.AttributeValue{
				":inactive": &types.AttributeValueMemberBOOL{Value: false},
				":now":      &types.AttributeValueMemberS{Value: now},
			}, nil)
		return updErr
	}); err != nil {
		return err
	}

	if err := withRetries(ctx, "LeaveRoom:updateRoom", func() error {
		_, updErr := s.Dynamo.UpdateItem(ctx, models.RoomsTable,
			"SET memberCount = memberCount - :one, updatedAt = :now",
			roomKey(roomID),
			map[string]types.AttributeValue{
				":one": &types.AttributeValueMemberN{Value: "1"},
				":now": &types.AttributeValueMemberS{Value: now},
			}, nil)
		return updErr
	}); err != nil {
		return err
	}

	s.Notifier.PublishRoomEvent(models.RoomEvent{
		Kind:      models.RoomEventLeave,
		RoomID:    roomID,
		UserID:    userID,
		Timestamp: now,
	})
	log.Printf("👋 User %s left room %s", userID, roomID)
	return nil
}

// StartRoom moves a WAITING room into ACTIVE voting. Host only.
func (s *RoomService) StartRoom(ctx context.Context, hostID, roomID string) (*models.Room, error) {
	return s.transitionRoom(ctx, hostID, roomID, models.RoomStatusWaiting, models.RoomStatusActive)
}

// CloseRoom transitions a room to its terminal CLOSED state. Host only.
func (s *RoomService) CloseRoom(ctx context.Context, hostID, roomID string) (*models.Room, error) {
	return s.transitionRoom(ctx, hostID, roomID, "", models.RoomStatusClosed)
}

func (s *RoomService) transitionRoom(ctx context.Context, hostID, roomID, fromStatus, toStatus string) (*models.Room, error) {
	room, err := getRoomByID(ctx, s.Dynamo, roomID)
	if err != nil {
		return nil, err
	}
	if room.HostID != hostID {
		return nil, ErrNotHost
	}
	if room.Status == models.RoomStatusClosed {
		return nil, ErrRoomNotActive
	}
	if fromStatus != "" && room.Status != fromStatus {
		return nil, fmt.Errorf("%w: room is %s", ErrRoomNotJoinable, room.Status)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := withRetries(ctx, "transitionRoom:update", func() error {
		_, updErr := s.Dynamo.UpdateItem(ctx, models.RoomsTable,
			"SET #s = :status, updatedAt = :now",
			roomKey(roomID),
			map[string]types.AttributeValue{
				":status": &types.AttributeValueMemberS{Value: toStatus},
				":now":    &types.AttributeValueMemberS{Value: now},
			},
			map[string]string{"#s": "status"})
		return updErr
	}); err != nil {
		return nil, err
	}

	room.Status = toStatus
	room.UpdatedAt = now
	log.Printf("✅ Room %s transitioned to %s", roomID, toStatus)
	return room, nil
}

// GetRoom returns the room when the caller is an active member of it.
func (s *RoomService) GetRoom(ctx context.Context, userID, roomID string) (*models.Room, error) {
	room, err := getRoomByID(ctx, s.Dynamo, roomID)
	if err != nil {
		return nil, err
	}
	member, err := getRoomMember(ctx, s.Dynamo, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !member.IsActive {
		return nil, ErrNotMember
	}
	return room, nil
}

// GetMyHistory returns, newest first, up to 50 rooms the user has ever
// joined. One room failing with a fatal key-shape error is skipped and
// logged rather than aborting the whole fan-out.
func (s *RoomService) GetMyHistory(ctx context.Context, userID string) ([]models.Room, error) {
	var items []map[string]types.AttributeValue
	err := withRetries(ctx, "GetMyHistory:memberships", func() error {
		var queryErr error
		items, queryErr = s.Dynamo.QueryItemsWithIndex(ctx, models.RoomMembersTable, models.UserHistoryIndex,
			"userId = :userId",
			map[string]types.AttributeValue{
				":userId": &types.AttributeValueMemberS{Value: userID},
			}, nil, historyLimit, true)
		return queryErr
	})
	if err != nil {
		return nil, err
	}

	rooms := make([]models.Room, 0, len(items))
	for _, item := range items {
		var membership models.RoomMember
		if umErr := attributevalue.UnmarshalMap(item, &membership); umErr != nil {
			log.Printf("⚠️ Skipping unreadable membership row for user %s: %v", userID, umErr)
			continue
		}

		room, roomErr := getRoomByID(ctx, s.Dynamo, membership.RoomID)
		if roomErr != nil {
			if errors.Is(roomErr, ErrSchemaMismatch) || errors.Is(roomErr, ErrRoomNotFound) {
				log.Printf("⚠️ Skipping room %s in history for user %s: %v", membership.RoomID, userID, roomErr)
				continue
			}
			return nil, roomErr
		}
		rooms = append(rooms, *room)
	}

	log.Printf("✅ Found %d rooms in history for user %s", len(rooms), userID)
	return rooms, nil
}

// UpdateRoomFilters enforces filter immutability. A non-host attempt fails
// with ErrNotHost before the immutability check so clients can render the
// two cases differently. A room that never had a filter may set one here —
// rooms created before filtering existed can opt in exactly once.
func (s *RoomService) UpdateRoomFilters(ctx context.Context, userID, roomID, mediaType string, genreIDs []string) (*models.Room, error) {
	room, err := getRoomByID(ctx, s.Dynamo, roomID)
	if err != nil {
		return nil, err
	}
	if room.HostID != userID {
		return nil, ErrNotHost
	}
	if room.HasFilters() {
		return nil, ErrFiltersImmutable
	}
	if len(genreIDs) > models.MaxGenreFilters {
		return nil, ErrTooManyCategories
	}
	if mediaType == "" && len(genreIDs) == 0 {
		return nil, fmt.Errorf("%w: no filter supplied", ErrInvalidInput)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	pool := s.Pool.Fetch(ctx, mediaType, genreIDs, s.PoolSize, room.ExcludedContentIDs)
	contentIDs := contentIDsOf(pool)

	if err := withRetries(ctx, "UpdateRoomFilters:update", func() error {
		_, updErr := s.Dynamo.UpdateItem(ctx, models.RoomsTable,
			"SET mediaType = :mediaType, genreIds = :genreIds, contentIds = :contentIds, currentContentIndex = :zero, lastContentRefreshAt = :now, updatedAt = :now",
			roomKey(roomID),
			map[string]types.AttributeValue{
				":mediaType":  &types.AttributeValueMemberS{Value: mediaType},
				":genreIds":   stringListAttr(genreIDs),
				":contentIds": stringListAttr(contentIDs),
				":zero":       &types.AttributeValueMemberN{Value: "0"},
				":now":        &types.AttributeValueMemberS{Value: now},
			}, nil)
		return updErr
	}); err != nil {
		return nil, err
	}

	room.MediaType = mediaType
	room.GenreIDs = genreIDs
	room.ContentIDs = contentIDs
	room.CurrentContentIndex = 0
	room.LastContentRefreshAt = now
	room.UpdatedAt = now
	return room, nil
}

// RefreshContentPool replaces an exhausted pool. Everything the room has
// ever held or shown is folded into the exclusion set first, so a refreshed
// pool never repeats content.
func (s *RoomService) RefreshContentPool(ctx context.Context, userID, roomID string) (*models.Room, error) {
	room, err := getRoomByID(ctx, s.Dynamo, roomID)
	if err != nil {
		return nil, err
	}
	if room.HostID != userID {
		return nil, ErrNotHost
	}
	if !room.HasFilters() {
		return nil, fmt.Errorf("%w: room has no content filter to refresh", ErrInvalidInput)
	}

	excluded := unionIDs(room.ExcludedContentIDs, room.ContentIDs, room.ShownContentIDs)
	pool := s.Pool.Fetch(ctx, room.MediaType, room.GenreIDs, s.PoolSize, excluded)
	contentIDs := contentIDsOf(pool)
	now := time.Now().UTC().Format(time.RFC3339)

	if err := withRetries(ctx, "RefreshContentPool:update", func() error {
		_, updErr := s.Dynamo.UpdateItem(ctx, models.RoomsTable,
			"SET contentIds = :contentIds, excludedContentIds = :excluded, currentContentIndex = :zero, lastContentRefreshAt = :now, updatedAt = :now",
			roomKey(roomID),
			map[string]types.AttributeValue{
				":contentIds": stringListAttr(contentIDs),
				":excluded":   stringListAttr(excluded),
				":zero":       &types.AttributeValueMemberN{Value: "0"},
				":now":        &types.AttributeValueMemberS{Value: now},
			}, nil)
		return updErr
	}); err != nil {
		return nil, err
	}

	room.ContentIDs = contentIDs
	room.ExcludedContentIDs = excluded
	room.CurrentContentIndex = 0
	room.LastContentRefreshAt = now
	room.UpdatedAt = now
	log.Printf("🔄 Room %s pool refreshed: %d fresh items, %d excluded", roomID, len(contentIDs), len(excluded))
	return room, nil
}

// --- shared room/membership lookups ---

func roomKey(roomID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: roomID},
		"SK": &types.AttributeValueMemberS{Value: models.RoomSortKey},
	}
}

func memberKeyOf(roomID, userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"roomId": &types.AttributeValueMemberS{Value: roomID},
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
}

func getRoomByID(ctx context.Context, db DB, roomID string) (*models.Room, error) {
	var item map[string]types.AttributeValue
	err := withRetries(ctx, "getRoomByID", func() error {
		var getErr error
		item, getErr = db.GetItem(ctx, models.RoomsTable, roomKey(roomID))
		return getErr
	})
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	var room models.Room
	if umErr := attributevalue.UnmarshalMap(item, &room); umErr != nil {
		return nil, fmt.Errorf("%w: unreadable room row %s: %v", ErrSchemaMismatch, roomID, umErr)
	}
	return &room, nil
}

func getRoomMember(ctx context.Context, db DB, roomID, userID string) (*models.RoomMember, error) {
	var item map[string]types.AttributeValue
	err := withRetries(ctx, "getRoomMember", func() error {
		var getErr error
		item, getErr = db.GetItem(ctx, models.RoomMembersTable, memberKeyOf(roomID, userID))
		return getErr
	})
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrNotMember
		}
		return nil, err
	}

	var member models.RoomMember
	if umErr := attributevalue.UnmarshalMap(item, &member); umErr != nil {
		return nil, fmt.Errorf("%w: unreadable member row %s/%s: %v", ErrSchemaMismatch, roomID, userID, umErr)
	}
	return &member, nil
}

// activeRoomMembers lists the currently active members of a room.
func activeRoomMembers(ctx context.Context, db DB, roomID string) ([]models.RoomMember, error) {
	var items []map[string]types.AttributeValue
	err := withRetries(ctx, "activeRoomMembers", func() error {
		var queryErr error
		items, queryErr = db.QueryItems(ctx, models.RoomMembersTable,
			"roomId = :roomId",
			map[string]types.AttributeValue{
				":roomId": &types.AttributeValueMemberS{Value: roomID},
			}, nil, 100)
		return queryErr
	})
	if err != nil {
		return nil, err
	}

	var members []models.RoomMember
	for _, item := range items {
		var member models.RoomMember
		if umErr := attributevalue.UnmarshalMap(item, &member); umErr != nil {
			log.Printf("⚠️ Skipping unreadable member row in room %s: %v", roomID, umErr)
			continue
		}
		if member.IsActive {
			members = append(members, member)
		}
	}
	return members, nil
}

func contentIDsOf(items []models.ContentItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func unionIDs(sets ...[]string) []string {
	seen := make(map[string]bool)
	var union []string
	for _, set := range sets {
		for _, id := range set {
			id = NormalizeContentID(id)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			union = append(union, id)
		}
	}
	return union
}

func stringListAttr(values []string) types.AttributeValue {
	list := make([]types.AttributeValue, 0, len(values))
	for _, v := range values {
		list = append(list, &types.AttributeValueMemberS{Value: v})
	}
	return &types.AttributeValueMemberL{Value: list}
}
