package domain

// Permission is a named capability granted through role membership.
type Permission struct {
	ID       string
	Codename string
	Name     string
}

// Role groups permissions and is assigned to users.
type Role struct {
	ID          string
	Name        string
	Permissions []Permission
}

// Well-known role names used by the workflow engine.
const (
	RoleAdmin         = "admin"
	RoleChiefPolice   = "chief_police"
	RoleCaptain       = "captain"
	RoleSergeant      = "sergeant"
	RoleDetective     = "detective"
	RolePoliceOfficer = "police_officer"
	RolePatrolOfficer = "patrol_officer"
	RoleCadet         = "cadet"
	RoleComplainant   = "complainant"
	RoleWitness       = "witness"
	RoleSuspect       = "suspect"
	RoleCriminal      = "criminal"
	RoleJudge         = "judge"
	RoleForensic      = "forensic"
	RoleBase          = "base"
)

// Capability codenames.
const (
	CapCaseCreate          = "case_create"
	CapCaseEdit            = "case_edit"
	CapCaseApprove         = "case_approve"
	CapCaseVerify          = "case_verify"
	CapCaseDelete          = "case_delete"
	CapCaseRead            = "case_read"
	CapEvidenceCreate      = "evidence_create"
	CapEvidenceRead        = "evidence_read"
	CapInvestigationSubmit = "investigation_submit"
	CapBase                = "base"
	CapAdmin               = "admin"
)

// DefaultPermissions maps codenames to display names for deployment seeding.
var DefaultPermissions = map[string]string{
	CapCaseCreate:          "Create Case",
	CapCaseEdit:            "Edit Case",
	CapCaseApprove:         "Approve Case",
	CapCaseVerify:          "Verify Case",
	CapCaseDelete:          "Delete Case",
	CapCaseRead:            "Read Case",
	CapEvidenceCreate:      "Create Evidence",
	CapEvidenceRead:        "Read Evidence",
	CapInvestigationSubmit: "Submit investigation score",
	CapBase:                "Base Permission for all users",
	CapAdmin:               "Administrator permission",
}

// DefaultRoles maps role names to their permission codenames.
var DefaultRoles = map[string][]string{
	RoleAdmin:         {CapAdmin},
	RoleChiefPolice:   {CapCaseVerify, CapCaseRead, CapCaseEdit, CapCaseApprove},
	RoleCaptain:       {CapCaseVerify, CapCaseRead, CapCaseEdit, CapCaseApprove},
	RoleSergeant:      {CapInvestigationSubmit},
	RoleDetective:     {CapInvestigationSubmit},
	RolePoliceOfficer: {CapCaseVerify, CapCaseRead, CapCaseEdit},
	RolePatrolOfficer: {CapCaseVerify, CapCaseRead, CapCaseEdit},
	RoleCadet:         {CapCaseRead, CapCaseApprove, CapCaseEdit},
	RoleComplainant:   {CapCaseCreate, CapCaseEdit},
	RoleWitness:       {},
	RoleSuspect:       {},
	RoleCriminal:      {},
	RoleJudge:         {CapCaseRead, CapCaseEdit, CapEvidenceRead},
	RoleForensic:      {CapEvidenceCreate, CapEvidenceRead},
	RoleBase:          {CapBase},
}

// JuniorRoles are the ranks whose cases require cadet approval first.
var JuniorRoles = []string{RoleBase, RoleComplainant, RoleCadet}
