package outbox

const registrationCreatedSchema = `{
  "type": "object",
  "title": "RegistrationCreated",
  "properties": {
    "registration_id": {"type": "string"},
    "user_id": {"type": "string"},
    "activity_id": {"type": "string"},
    "session_id": {"type": "string"},
    "status": {"type": "string"},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["registration_id", "user_id", "activity_id", "status", "created_at"],
  "additionalProperties": false
}`

const registrationStatusChangedSchema = `{
  "type": "object",
  "title": "RegistrationStatusChanged",
  "properties": {
    "registration_id": {"type": "string"},
    "user_id": {"type": "string"},
    "activity_id": {"type": "string"},
    "session_id": {"type": "string"},
    "status": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["registration_id", "user_id", "activity_id", "status", "occurred_at"],
  "additionalProperties": false
}`
