package config

const (
	PathHealthCheck        = "/"
	PathCreateTemplate     = "/create_template"
	PathGetTemplate        = "/get_template"
	PathGetTemplates       = "/get_templates"
	PathUpdateTemplate     = "/update_template"
	PathDeleteTemplate     = "/delete_template"
	PathSetAppPassword     = "/set_app_password"
	PathUploadRecipients   = "/upload_recipients"
	PathUploadAttachment   = "/upload_attachment"
	PathGetAttachments     = "/get_attachments"
	PathDeleteAttachment   = "/delete_attachment"
	PathGetSampleFile      = "/get_sample_file"
	PathPreviewDispatch    = "/preview_dispatch"
	PathCreateDispatch     = "/create_dispatch"
	PathGetDispatchRun     = "/get_dispatch_run"
	PathCancelDispatchRun  = "/cancel_dispatch_run"
	PathGetCampaignBatches = "/get_campaign_batches"
	PathGetStats           = "/get_stats"
	PathAddReplies         = "/add_replies"
	PathGetReplies         = "/get_replies"
	PathDeleteReply        = "/delete_reply"
	PathMetrics            = "/metrics"
)

const (
	DefaultPort   = 9090
	LogLevelDebug = "DEBUG"
)

const (
	MailProviderSMTP  = "smtp"
	MailProviderBrevo = "brevo"
)

var (
	EmptyJson = []byte("{}")
)
