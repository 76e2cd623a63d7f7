package state

// PlaceOnSite moves the card to the board cell at row,col. A card whose
// definition is a site becomes the cell's site card and grants its owner
// one mana (current and total) plus the printed thresholds; anything else
// joins the top of the cell's unit stack. Missing ids and out-of-range
// cells are no-ops.
func (s *Store) PlaceOnSite(id string, row, col int) {
	if !onBoard(row, col) {
		return
	}
	card := s.take(id)
	if card == nil {
		return
	}
	site := &s.game.Board[row][col]
	if card.Def != nil && card.Def.Kind == "site" {
		// Replacing an existing site card would orphan it; push the old
		// one to its owner's graveyard instead.
		if old := site.SiteCard; old != nil {
			s.toZone(old, old.Owner, ZoneGraveyard, false)
		}
		site.SiteCard = card
		if p := s.game.Players[card.Owner]; p != nil {
			p.Mana++
			p.ManaTotal++
			p.Thresholds.Add(card.Def.Thresholds)
		}
		return
	}
	site.Units = append([]*CardInstance{card}, site.Units...)
}

// PlaceOnVertex moves the card onto the vertex stack at key.
func (s *Store) PlaceOnVertex(id string, key VertexKey) {
	card := s.take(id)
	if card == nil {
		return
	}
	s.game.Vertices[key] = append([]*CardInstance{card}, s.game.Vertices[key]...)
}

// PlaceAvatar puts the slot's avatar at its fixed starting coordinate.
func (s *Store) PlaceAvatar(slot Slot, card *CardInstance) {
	if card == nil {
		return
	}
	s.Materialize(card)
	row, col := AvatarStart(slot)
	s.PlaceOnSite(card.ID, row, col)
}

// MoveCard relocates the card to the named zone of the given slot. With
// bottom false the card goes on top (front) of the zone, otherwise it is
// appended to the back.
func (s *Store) MoveCard(id string, slot Slot, zone ZoneID, bottom bool) {
	card := s.take(id)
	if card == nil {
		return
	}
	s.toZone(card, slot, zone, bottom)
}

func (s *Store) toZone(card *CardInstance, slot Slot, zone ZoneID, bottom bool) {
	p := s.game.Players[slot]
	if p == nil {
		return
	}
	z := p.zone(zone)
	if z == nil {
		s.log.Warn("move to unknown zone discarded", "zone", string(zone), "card", card.ID)
		p.Collection = append(p.Collection, card)
		return
	}
	if bottom {
		*z = append(*z, card)
	} else {
		*z = append([]*CardInstance{card}, *z...)
	}
}

// RotateCard sets the card's rotation. Only 0 and 90 are legal; anything
// else is discarded.
func (s *Store) RotateCard(id string, rotation int) {
	if rotation != Untapped && rotation != Tapped {
		s.log.Warn("illegal rotation discarded", "card", id, "rotation", rotation)
		return
	}
	if card := s.FindCard(id); card != nil {
		card.Rotation = rotation
	}
}

// ToggleTuckedUnder moves the card between the unit stack and the
// tucked-under stack of the board cell at row,col.
func (s *Store) ToggleTuckedUnder(id string, row, col int) {
	if !onBoard(row, col) {
		return
	}
	site := &s.game.Board[row][col]
	if card := removeByID(&site.Units, id); card != nil {
		site.Tucked = append([]*CardInstance{card}, site.Tucked...)
		return
	}
	if card := removeByID(&site.Tucked, id); card != nil {
		site.Units = append([]*CardInstance{card}, site.Units...)
	}
}

// AdjustCounter moves the card's counter by delta. A result at or below
// zero collapses the field back to its zero value, so a counter never
// exists with value zero.
func (s *Store) AdjustCounter(id string, delta int) {
	card := s.FindCard(id)
	if card == nil {
		return
	}
	card.Counter += delta
	if card.Counter <= 0 {
		card.Counter = 0
	}
}

// FlipFaceDown sets or clears the card's face-down flag.
func (s *Store) FlipFaceDown(id string, faceDown bool) {
	if card := s.FindCard(id); card != nil {
		card.FaceDown = faceDown
	}
}

// AttachToken relocates the token onto the target card's attachment list,
// creating the list if absent. The token is searched for in spell stacks,
// hands, board unit stacks and existing attachment lists, in that order,
// and removed from wherever it is first found; single residency guarantees
// at most one hit. Unknown token or target ids are no-ops. Attachments do
// not nest: a token that itself carries attachments keeps them, but a
// token can only attach to a top-level card.
func (s *Store) AttachToken(tokenID, targetID string) {
	target := s.FindCard(targetID)
	if target == nil || target.ID == tokenID {
		return
	}
	token := s.takeForAttach(tokenID)
	if token == nil {
		return
	}
	target.Attached = append(target.Attached, token)
}

// takeForAttach removes a token using the attach search priority: spell
// stacks, hands, board unit stacks, then attachment lists of cards on the
// board and vertices.
func (s *Store) takeForAttach(id string) *CardInstance {
	for _, p := range s.game.Players {
		if c := removeByID(&p.SpellStack, id); c != nil {
			return c
		}
	}
	for _, p := range s.game.Players {
		if c := removeByID(&p.Hand, id); c != nil {
			return c
		}
	}
	for r := range s.game.Board {
		for c := range s.game.Board[r] {
			if card := removeByID(&s.game.Board[r][c].Units, id); card != nil {
				return card
			}
		}
	}
	for r := range s.game.Board {
		for c := range s.game.Board[r] {
			site := &s.game.Board[r][c]
			for _, u := range site.Units {
				if card := removeByID(&u.Attached, id); card != nil {
					return card
				}
			}
			if site.SiteCard != nil {
				if card := removeByID(&site.SiteCard.Attached, id); card != nil {
					return card
				}
			}
		}
	}
	for _, stack := range s.game.Vertices {
		for _, u := range stack {
			if card := removeByID(&u.Attached, id); card != nil {
				return card
			}
		}
	}
	return nil
}

// DetachToken removes the token from the target's attachment list and
// drops it onto the unit stack of the board cell at row,col.
func (s *Store) DetachToken(tokenID, targetID string, row, col int) {
	if !onBoard(row, col) {
		return
	}
	target := s.FindCard(targetID)
	if target == nil {
		return
	}
	token := removeByID(&target.Attached, tokenID)
	if token == nil {
		return
	}
	site := &s.game.Board[row][col]
	site.Units = append([]*CardInstance{token}, site.Units...)
}

// AdjustLife moves the slot's life total by delta.
func (s *Store) AdjustLife(slot Slot, delta int) {
	if p := s.game.Players[slot]; p != nil {
		p.Life += delta
	}
}

// AdjustMana moves the slot's available mana by delta, clamping at zero.
func (s *Store) AdjustMana(slot Slot, delta int) {
	p := s.game.Players[slot]
	if p == nil {
		return
	}
	p.Mana += delta
	if p.Mana < 0 {
		p.Mana = 0
	}
}

// AdjustManaTotal moves the slot's mana ceiling by delta, clamping at zero.
func (s *Store) AdjustManaTotal(slot Slot, delta int) {
	p := s.game.Players[slot]
	if p == nil {
		return
	}
	p.ManaTotal += delta
	if p.ManaTotal < 0 {
		p.ManaTotal = 0
	}
}

// AdjustThreshold moves one element of the slot's thresholds by delta.
func (s *Store) AdjustThreshold(slot Slot, el Element, delta int) {
	if p := s.game.Players[slot]; p != nil {
		p.Thresholds.Adjust(el, delta)
	}
}

// StartTurn begins the named slot's turn: every card that slot owns on the
// board, on vertices and in tucked stacks is untapped, attachments
// included, available mana refills to the mana total, the turn counter
// advances and the turn-started flag is raised.
func (s *Store) StartTurn(slot Slot) {
	untap := func(c *CardInstance) {
		if c == nil || c.Owner != slot {
			return
		}
		c.Rotation = Untapped
		for _, a := range c.Attached {
			a.Rotation = Untapped
		}
	}
	for r := range s.game.Board {
		for c := range s.game.Board[r] {
			site := &s.game.Board[r][c]
			untap(site.SiteCard)
			for _, u := range site.Units {
				untap(u)
			}
			for _, u := range site.Tucked {
				untap(u)
			}
		}
	}
	for _, stack := range s.game.Vertices {
		for _, u := range stack {
			untap(u)
		}
	}
	if p := s.game.Players[slot]; p != nil {
		p.Mana = p.ManaTotal
	}
	s.game.Turn++
	s.game.TurnStarted = true
}

// EndTurn lowers the turn-started flag; the peer answers by starting its
// own turn.
func (s *Store) EndTurn(Slot) {
	s.game.TurnStarted = false
}

// ImportDeck replaces the slot's decks wholesale. Ownership and source-deck
// tags are stamped here so later draws can pick a matching card back.
func (s *Store) ImportDeck(slot Slot, sites, spells []*CardInstance) {
	p := s.game.Players[slot]
	if p == nil {
		return
	}
	for _, c := range sites {
		c.Owner = slot
		c.SourceDeck = DeckSite
	}
	for _, c := range spells {
		c.Owner = slot
		c.SourceDeck = DeckSpell
	}
	p.SiteDeck = sites
	p.SpellDeck = spells
}

// ClearSlot removes every card the slot owns, from the board, vertices,
// attachment lists and all zones, and resets its counters. Used for
// rematches.
func (s *Store) ClearSlot(slot Slot) {
	for r := range s.game.Board {
		for c := range s.game.Board[r] {
			site := &s.game.Board[r][c]
			if site.SiteCard != nil && site.SiteCard.Owner == slot {
				site.SiteCard = nil
			}
			site.Units = dropOwned(site.Units, slot)
			site.Tucked = dropOwned(site.Tucked, slot)
		}
	}
	for key, stack := range s.game.Vertices {
		stack = dropOwned(stack, slot)
		if len(stack) == 0 {
			delete(s.game.Vertices, key)
		} else {
			s.game.Vertices[key] = stack
		}
	}
	s.walkCards(func(c *CardInstance) bool {
		c.Attached = dropOwned(c.Attached, slot)
		return true
	})
	nickname := ""
	if p := s.game.Players[slot]; p != nil {
		nickname = p.Nickname
	}
	s.game.Players[slot] = &PlayerState{Nickname: nickname, Life: StartingLife}
}

func dropOwned(cards []*CardInstance, slot Slot) []*CardInstance {
	kept := cards[:0]
	for _, c := range cards {
		if c.Owner != slot {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

func onBoard(row, col int) bool {
	return row >= 0 && row < BoardRows && col >= 0 && col < BoardCols
}
