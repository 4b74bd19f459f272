package authz

// Operation es la intención sobre el recurso.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
)

// Verdict es el resultado puro del engine. Rule identifica qué regla
// aplicó (útil para logs de denegación; nunca se expone al cliente).
type Verdict struct {
	Allow bool
	Rule  string
}

func allow(rule string) Verdict { return Verdict{Allow: true, Rule: rule} }
func deny(rule string) Verdict  { return Verdict{Allow: false, Rule: rule} }

// Engine aplica la tabla de políticas por recurso sobre facts ya
// resueltos. Función pura: no lee almacenes ni muta nada. El superusuario
// siempre pasa; usuarios inactivos nunca llegan aquí (se cortan en auth).
type Engine struct{}

// Farm: owner-only para todo.
func (Engine) Farm(u User, f FarmFacts, op Operation) Verdict {
	if u.IsSuperuser {
		return allow("superuser")
	}
	if f.IsOwner {
		return allow("farm:owner")
	}
	return deny("farm:" + string(op) + ":owner-only")
}

// Lot: lectura para owner o shared; escritura/borrado solo owner de la finca.
func (Engine) Lot(u User, f FarmFacts, op Operation) Verdict {
	if u.IsSuperuser {
		return allow("superuser")
	}
	switch op {
	case OpRead:
		if f.IsOwner || f.HasSharedAccess {
			return allow("lot:farm-access")
		}
	default:
		if f.IsOwner {
			return allow("lot:farm-owner")
		}
	}
	return deny("lot:" + string(op))
}

// Animal: lectura/escritura para owner o acceso de finca; borrado owner-only.
func (Engine) Animal(u User, f AnimalFacts, op Operation) Verdict {
	if u.IsSuperuser {
		return allow("superuser")
	}
	switch op {
	case OpDelete:
		if f.IsOwner {
			return allow("animal:owner")
		}
	default:
		if f.IsOwner || f.HasFarmAccess {
			return allow("animal:access")
		}
	}
	return deny("animal:" + string(op))
}

// Grupo: solo el creador, para toda operación.
func (Engine) Grupo(u User, isCreator bool, op Operation) Verdict {
	if u.IsSuperuser {
		return allow("superuser")
	}
	if isCreator {
		return allow("grupo:creator")
	}
	return deny("grupo:" + string(op) + ":creator-only")
}

// Event: lectura para quien lo registró o quien acceda a algún animal
// afectado; escritura/borrado solo para quien lo registró.
func (Engine) Event(u User, isRecorder, hasAnimalAccess bool, op Operation) Verdict {
	if u.IsSuperuser {
		return allow("superuser")
	}
	switch op {
	case OpRead:
		if isRecorder || hasAnimalAccess {
			return allow("event:access")
		}
	default:
		if isRecorder {
			return allow("event:recorder")
		}
	}
	return deny("event:" + string(op))
}

// Transaction: lectura para from/to owner; escritura/borrado solo from.
func (Engine) Transaction(u User, isFromOwner, isToOwner bool, op Operation) Verdict {
	if u.IsSuperuser {
		return allow("superuser")
	}
	switch op {
	case OpRead:
		if isFromOwner || isToOwner {
			return allow("transaction:party")
		}
	default:
		if isFromOwner {
			return allow("transaction:from-owner")
		}
	}
	return deny("transaction:" + string(op))
}

// FarmGrantAccess: quién puede operar sobre el grant mismo.
// Lectura: grantee, grantor o dueño de la finca. Escritura: grantor o
// dueño. Borrado (hard): solo superusuario; revocar es otra operación.
func (Engine) FarmGrantAccess(u User, g FarmGrant, op Operation) Verdict {
	if u.IsSuperuser {
		return allow("superuser")
	}
	switch op {
	case OpRead:
		if u.ID == g.UserID || u.ID == g.AssignedByUserID || u.ID == g.FarmOwnerUserID {
			return allow("grant:party")
		}
	case OpWrite:
		if u.ID == g.AssignedByUserID || u.ID == g.FarmOwnerUserID {
			return allow("grant:grantor")
		}
	case OpDelete:
		// solo superuser, ya cubierto arriba
	}
	return deny("grant:" + string(op))
}

// RoleAdmin protege el catálogo de roles/permisos y sus asociaciones.
func (Engine) RoleAdmin(u User, op Operation) Verdict {
	if u.IsSuperuser {
		return allow("superuser")
	}
	return deny("rbac:" + string(op) + ":superuser-only")
}
